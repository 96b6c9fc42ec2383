// Command poe operates a local proof-of-engagement chain.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/eigerco/poe/internal/cli"
	"github.com/eigerco/poe/internal/config"
	"github.com/eigerco/poe/pkg/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCommandError)
	}
	logOpts, err := cfg.LogOptions()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCommandError)
	}
	logOpts.Output = os.Stderr
	log.Init(logOpts)

	if err := cli.NewRootCommand(cfg).Execute(); err != nil {
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
