// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package feemodel implements the abstract cost model of spec.md §4.4:
// bytes_per_input * n_inputs + bytes_per_output * n_outputs + base,
// evaluated with legacy sizes so the fee is never underestimated for the
// broad multi-chain target set the engine addresses. It is shared by
// utxoset (payment-UTXO selection needs to know the fee a candidate
// input set would owe) and purchase (final fee sizing of the built
// transaction).
package feemodel

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/ordswap/engine/config"
	"github.com/ordswap/engine/providers"
)

// Legacy per-item byte costs used by the cost model, conservative for
// segwit chains and exact for legacy chains (spec.md §4.4).
const (
	BytesPerInput  = 180
	BytesPerOutput = 34
	BaseTxBytes    = 10
)

// SatPerVByte is a fee rate expressed in satoshis per virtual byte. The
// engine's cost model never needs weight units or kilo-denominated
// rates, so unlike a general-purpose fee-rate library it is kept to
// the single unit the fee oracles quote and the model above consumes.
type SatPerVByte btcutil.Amount

// FeeForVBytes returns the fee owed for a transaction of the given
// size at this rate.
func (r SatPerVByte) FeeForVBytes(vbytes int) btcutil.Amount {
	return btcutil.Amount(r) * btcutil.Amount(vbytes)
}

// EstimateFee returns the fee owed by a transaction with nInputs inputs
// and nOutputs outputs at the given fee rate, using the abstract legacy
// cost model.
func EstimateFee(nInputs, nOutputs int, rate SatPerVByte) btcutil.Amount {
	vsize := nInputs*BytesPerInput + nOutputs*BytesPerOutput + BaseTxBytes

	return rate.FeeForVBytes(vsize)
}

// ResolveRate fetches the sat/vbyte fee rate for tier from the fee
// oracle, defaulting unrecognized tiers to hourFee per §6.
func ResolveRate(ctx context.Context, fp providers.FeeProvider, tier config.FeeTier) (SatPerVByte, error) {
	amount, err := fp.GetFee(ctx, tier.Normalize())
	if err != nil {
		return 0, fmt.Errorf("resolve fee rate: %w", err)
	}

	return SatPerVByte(amount), nil
}
