package main

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"github.com/zoobzio/sbuf"
)

var (
	stressRecords int

	stressCmd = &cobra.Command{
		Use:   "stress",
		Short: "Insert a large number of records and report throughput",
		Long: `stress reproduces the reference implementation's own stress test:
two jobs, twenty thousand sensor readings by default, inserted back to
back, measuring wall-clock time to full reclamation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress(cmd)
		},
	}
)

func init() {
	stressCmd.Flags().IntVar(&stressRecords, "records", 20000, "number of sensor readings to insert")
}

func runStress(cmd *cobra.Command) error {
	stream, err := sbuf.New[SensorReading](2, 2, sbuf.WithName[SensorReading]("sbuf-stress"))
	if err != nil {
		return fmt.Errorf("creating stream: %w", err)
	}

	var countA, countB atomic.Int64
	if err := stream.RegisterJob(1, func(SensorReading) { countA.Add(1) }); err != nil {
		return fmt.Errorf("registering job 1: %w", err)
	}
	if err := stream.RegisterJob(2, func(SensorReading) { countB.Add(1) }); err != nil {
		return fmt.Errorf("registering job 2: %w", err)
	}

	start := time.Now()
	for i := 1; i <= stressRecords; i++ {
		if err := stream.Insert(newReading(uint16(i), 1232)); err != nil {
			return fmt.Errorf("inserting reading %d: %w", i, err)
		}
	}
	if err := stream.Shutdown(); err != nil {
		return fmt.Errorf("shutting down stream: %w", err)
	}
	elapsed := time.Since(start)

	fmt.Fprintf(cmd.OutOrStdout(), "inserted %d readings in %s\n", stressRecords, elapsed)
	fmt.Fprintf(cmd.OutOrStdout(), "job 1 invocations: %d\n", countA.Load())
	fmt.Fprintf(cmd.OutOrStdout(), "job 2 invocations: %d\n", countB.Load())
	return nil
}
