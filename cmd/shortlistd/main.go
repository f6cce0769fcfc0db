// Package main provides the entry point for the shortlistd CLI.
package main

import (
	"fmt"
	"os"

	"github.com/hirepath/shortlist/cmd/shortlistd/cmd"
	serrors "github.com/hirepath/shortlist/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprint(os.Stderr, serrors.FormatForCLI(err))
		os.Exit(1)
	}
}
