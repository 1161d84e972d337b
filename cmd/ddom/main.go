package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╔╦╗╔╦╗╔═╗╔╦╗
   ║║ ║║║ ║║║║
  ═╩╝═╩╝╚═╝╩ ╩
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "ddom",
		Short: "Live DOM collections from declarative documents",
		Long: `ddom turns declarative documents into live DOM collections.

A document declares data sources and collections over them. ddom
evaluates the filter, sort, and map pipeline on the server, keeps
every collection in sync as sources change, and streams the
difference to connected browsers as patches. Features include:

  • Sources backed by files, HTTP endpoints, bolt stores, and S3
  • Declarative filter, sort, and map pipelines
  • Keyed reconciliation, so unchanged nodes are left alone
  • Sessions that survive reconnects via patch replay
  • One-shot HTML rendering for static output`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add commands
	rootCmd.AddCommand(
		initCmd(),
		serveCmd(),
		renderCmd(),
		checkCmd(),
		graphCmd(),
		versionCmd(),
	)

	// Execute
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

// printBanner prints the ddom ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m %s\n", fmt.Sprintf(format, args...))
}
