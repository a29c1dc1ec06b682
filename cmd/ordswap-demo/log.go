// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"

	"github.com/ordswap/engine/listing"
	"github.com/ordswap/engine/purchase"
	"github.com/ordswap/engine/swap"
	"github.com/ordswap/engine/utxoset"
)

// logRotator is the underlying file rotator every subsystem logger
// writes through, kept alive for the lifetime of the process so it can
// be closed on shutdown.
var logRotator *rotator.Rotator

// demoLog is the demo binary's own logger, separate from the library
// subsystem loggers wired below.
var demoLog = btclog.Disabled

const maxLogRolls = 3

// initLogging opens (creating if necessary) a rotating log file under
// logDir and wires the package-level loggers of every ordswap package
// that exposes a UseLogger hook, mirroring how the teacher wires
// wallet.UseLogger/waddrmgr.UseLogger/wtxmgr.UseLogger/etc. from one
// place in bwtest/wallet_logging.go.
func initLogging(logDir string, debug bool) error {
	if err := os.MkdirAll(logDir, 0o700); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	logFile := filepath.Join(logDir, defaultLogFile)

	r, err := rotator.New(logFile, 10*1024, false, maxLogRolls)
	if err != nil {
		return fmt.Errorf("create log rotator: %w", err)
	}

	logRotator = r

	backend := btclog.NewBackend(r)

	level := btclog.LevelInfo
	if debug {
		level = btclog.LevelDebug
	}

	subsystems := map[string]func(btclog.Logger){
		"UTXO": utxoset.UseLogger,
		"LIST": listing.UseLogger,
		"PRCH": purchase.UseLogger,
		"SWAP": swap.UseLogger,
	}

	for tag, use := range subsystems {
		l := backend.Logger(tag)
		l.SetLevel(level)
		use(l)
	}

	demoLog = backend.Logger("DEMO")
	demoLog.SetLevel(level)

	return nil
}

// closeLogging flushes and closes the shared rotator; safe to call even
// if initLogging was never invoked.
func closeLogging() {
	if logRotator != nil {
		logRotator.Close()
	}
}
