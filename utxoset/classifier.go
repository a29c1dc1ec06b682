// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package utxoset implements component C2 of the swap engine: deciding
// whether a candidate UTXO is inscription-bearing, dummy-sized, or
// payment-eligible (spec.md §4.2). The fail-closed taint policy is the
// single most safety-critical piece of the whole engine, so it is kept
// in one small, heavily-commented function rather than spread across
// call sites.
package utxoset

import (
	"context"
	"errors"

	"github.com/btcsuite/btclog"

	"github.com/ordswap/engine/providers"
	"github.com/ordswap/engine/swaperr"
)

// log is the package logger, following the teacher's UseLogger pattern
// (see bwtest/wallet_logging.go's use of wallet.UseLogger).
var log = btclog.Disabled

// UseLogger sets the package-wide logger.
func UseLogger(logger btclog.Logger) {
	log = logger
}

// ErrTooFewCandidates is returned by SelectDummyUTXOs when fewer than
// two qualifying dummy UTXOs are present in the candidate set.
var ErrTooFewCandidates = errors.New("utxoset: fewer than two dummy-eligible utxos")

// Classifier answers ContainsInscription and the two selection helpers
// of spec.md §4.2 against a provider bundle.
type Classifier struct {
	Item providers.ItemProvider
	RPC  providers.RPCProvider
}

// New builds a Classifier from a provider bundle.
func New(item providers.ItemProvider, rpc providers.RPCProvider) *Classifier {
	return &Classifier{Item: item, RPC: rpc}
}

// ContainsInscription implements the policy of spec.md §4.2:
//
//  1. Confirmed UTXOs are checked directly against the inscription
//     indexer. A non-null result, or an indexer error, both mean
//     "inscription" (fail-closed).
//  2. Unconfirmed UTXOs are judged by their immediate parents: if any
//     input's previous transaction is itself unconfirmed, or if the
//     indexer reports (or errors on) any input's outpoint, the UTXO is
//     treated as inscription-bearing.
//  3. Otherwise, the UTXO is clean.
//
// This is deliberately conservative: since the indexer only indexes
// confirmed chain state, an unconfirmed output's ancestry cannot be
// cleared any other way, and a wrong "not inscription" verdict here
// would let the engine spend an ordinal as ordinary payment.
func (c *Classifier) ContainsInscription(ctx context.Context, utxo providers.AddressTxsUtxo) (bool, error) {
	if utxo.Confirmed {
		item, err := c.Item.GetTokenByOutput(ctx, utxo.Outpoint)
		if err != nil {
			log.Warnf("inscription lookup failed for %s, treating as "+
				"tainted (fail-closed): %v", utxo.Outpoint, err)

			return true, nil
		}

		return item != nil, nil
	}

	tx, err := c.RPC.GetRawTransactionVerbose(ctx, utxo.Outpoint.Txid)
	if err != nil {
		return true, swaperr.Wrap(swaperr.KindProviderError,
			"ContainsInscription", "fetch verbose tx", err)
	}

	for _, in := range tx.Vin {
		parent, err := c.RPC.GetRawTransactionVerbose(ctx, in.Txid)
		if err != nil {
			return true, swaperr.Wrap(swaperr.KindProviderError,
				"ContainsInscription", "fetch parent tx", err)
		}

		if parent.Confirmations == 0 {
			return true, nil
		}

		parentOut := providers.Outpoint{Txid: in.Txid, Vout: in.Vout}

		item, err := c.Item.GetTokenByOutput(ctx, parentOut)
		if err != nil {
			log.Warnf("inscription lookup failed for ancestor %s, "+
				"treating as tainted (fail-closed): %v", parentOut, err)

			return true, nil
		}

		if item != nil {
			return true, nil
		}
	}

	return false, nil
}

// mustNotBeTainted is a small helper shared by the two selection
// routines below: it wraps ContainsInscription and turns a provider
// error into the same fail-closed "treat as tainted" verdict used
// inside ContainsInscription itself, so callers never have to special
// case a lookup failure differently from a positive match.
func (c *Classifier) mustNotBeTainted(ctx context.Context, utxo providers.AddressTxsUtxo) bool {
	tainted, err := c.ContainsInscription(ctx, utxo)
	if err != nil {
		log.Warnf("classification error for %s, treating as tainted: %v",
			utxo.Outpoint, err)

		return true
	}

	return tainted
}
