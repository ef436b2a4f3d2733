package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "saulscript",
	Short: "SaulScript interpreter",
	Long: `saulscript is an embeddable, tree-walking scripting language interpreter.

SaulScript is a small dynamically-typed language with:
  - Arbitrary-precision decimal numbers, strings, booleans, lists and dicts
  - if/while/for control flow and first-class closures
  - Operation-count and wall-clock budgets for bounding host-embedded scripts
  - A host-binding model for exposing Go values and functions to scripts`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
