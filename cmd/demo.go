package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zoobzio/sbuf"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the two-job, nine-record walkthrough",
	Long: `demo reproduces the reference implementation's own small-scale
smoke test: one stream, two jobs, nine sensor readings inserted in order,
each printed by both jobs as the fan-out workers observe it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDemo(cmd)
	},
}

func runDemo(cmd *cobra.Command) error {
	stream, err := sbuf.New[SensorReading](2, 2, sbuf.WithName[SensorReading]("sbuf-demo"))
	if err != nil {
		return fmt.Errorf("creating stream: %w", err)
	}

	if err := stream.RegisterJob(1, func(r SensorReading) {
		fmt.Fprintf(cmd.OutOrStdout(), "[job 1] reading %d: value=%.2f ts=%d\n", r.ID, r.Value, r.Timestamp)
	}); err != nil {
		return fmt.Errorf("registering job 1: %w", err)
	}
	if err := stream.RegisterJob(2, func(r SensorReading) {
		fmt.Fprintf(cmd.OutOrStdout(), "[job 2] archiving reading %d\n", r.ID)
	}); err != nil {
		return fmt.Errorf("registering job 2: %w", err)
	}

	for i := uint16(1); i < 10; i++ {
		if err := stream.Insert(newReading(i, 1232)); err != nil {
			return fmt.Errorf("inserting reading %d: %w", i, err)
		}
	}

	if err := stream.Shutdown(); err != nil {
		return fmt.Errorf("shutting down stream: %w", err)
	}
	return nil
}
