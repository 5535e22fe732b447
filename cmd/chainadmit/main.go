// Copyright 2024 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

// chainadmit verifies block headers and renders the configuration of the
// chain admission core.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	networkFlag = &cli.StringFlag{
		Name:  "network",
		Usage: "Chain preset (mainnet, classic, dev)",
		Value: "mainnet",
	}
	fakePoWFlag = &cli.BoolFlag{
		Name:  "fakepow",
		Usage: "Accept any proof-of-work seal",
	}
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=crit, 1=error, 2=warn, 3=info, 4=debug, 5=trace",
		Value: 3,
	}
)

var app = &cli.App{
	Name:  "chainadmit",
	Usage: "chain admission core tool",
	Flags: []cli.Flag{
		configFileFlag,
		networkFlag,
		fakePoWFlag,
		verbosityFlag,
	},
	Before: setupLogging,
	Commands: []*cli.Command{
		dumpConfigCommand,
		verifyHeadersCommand,
	},
}

// setupLogging installs a terminal handler on the root logger, coloured when
// stderr is a terminal.
func setupLogging(ctx *cli.Context) error {
	var (
		output   io.Writer = os.Stderr
		usecolor           = (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
	)
	if usecolor {
		output = colorable.NewColorableStderr()
	}
	verbosity := ctx.Int(verbosityFlag.Name)
	if verbosity < int(log.LvlCrit) || verbosity > int(log.LvlTrace) {
		return fmt.Errorf("invalid verbosity %d", verbosity)
	}
	log.Root().SetHandler(log.LvlFilterHandler(log.Lvl(verbosity), log.StreamHandler(output, log.TerminalFormat(usecolor))))
	return nil
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
