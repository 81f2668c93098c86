package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/platinummonkey/gatekeep/pkg/cli"
)

func main() {
	rootCmd := cli.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, cli.ErrDenied) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}
