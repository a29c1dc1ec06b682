// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"
)

const (
	defaultChainName  = "bitcoin-mainnet"
	defaultLogDirname = "logs"
	defaultLogFile    = "ordswap-demo.log"
)

// options mirrors the teacher's config-struct-plus-go-flags-tags
// convention (btcwallet's own cmd/btcwallet binary is built the same
// way): every field has a sensible zero-config default so the demo
// runs unattended, but each is overridable from the command line.
type options struct {
	Chain      string `short:"c" long:"chain" description:"chain profile to run the demo against" default:"bitcoin-mainnet"`
	LogDir     string `long:"logdir" description:"directory rotating logs are written to"`
	Price      int64  `long:"price" description:"listing price in satoshis" default:"100000"`
	MakerFeeBP uint16 `long:"makerfeebp" description:"marketplace maker fee, in basis points" default:"100"`
	TakerFeeBP uint16 `long:"takerfeebp" description:"marketplace taker fee, in basis points" default:"200"`
	Debug      bool   `short:"d" long:"debug" description:"log at debug level instead of info"`
}

// loadOptions parses the command line, filling in the one default that
// depends on the working directory (the log directory, ./logs) after
// flags.Parse runs; LogDir has no struct tag default, so --help does
// not show it.
func loadOptions() (*options, error) {
	opts := &options{}

	parser := flags.NewParser(opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		return nil, err
	}

	if opts.LogDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}

		opts.LogDir = filepath.Join(cwd, defaultLogDirname)
	}

	return opts, nil
}
