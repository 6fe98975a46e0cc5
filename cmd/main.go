package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	rootCmd = &cobra.Command{
		Use:     "sbuf",
		Short:   "Concurrent fan-out stream buffer demos",
		Long:    `sbuf is a CLI tool for exploring the concurrent fan-out stream buffer: a single producer feeding a fixed set of job workers over an append-only list, reclaimed as soon as every job has seen each record.`,
		Version: version,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(stressCmd)
}
