// Package cli provides the command-line interface for CandleCorr
package cli

import (
	"context"
	"fmt"
	"os"
)

// Run starts the CLI application
func Run(ctx context.Context) int {
	rootCmd := NewRootCmd()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
