// Command saulscript is the CLI front-end for the SaulScript interpreter.
package main

import (
	"fmt"
	"os"

	"github.com/cwbudde/saulscript/cmd/saulscript/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
