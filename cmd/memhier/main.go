// The memhier command runs memory-hierarchy simulations from the command
// line and reports cache statistics.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var rootCmd = &cobra.Command{
	Use:   "memhier",
	Short: "memhier simulates a cache and interconnect memory hierarchy.",
	Long: `memhier runs a cycle-level model of per-core caches connected ` +
		`to memory partitions through a two-subnet switch, and reports ` +
		`hit, miss, and MSHR statistics.`,
}

func main() {
	// A .env file can preset the MEMHIER_* environment variables that
	// back some flag defaults. Its absence is not an error.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}

	atexit.Exit(0)
}
