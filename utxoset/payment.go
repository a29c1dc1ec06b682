// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package utxoset

import (
	"context"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/ordswap/engine/config"
	"github.com/ordswap/engine/feemodel"
	"github.com/ordswap/engine/providers"
	"github.com/ordswap/engine/swaperr"
)

// SelectPaymentUTXOs implements spec.md §4.2's payment selection
// routine: filter out anything that could be mistaken for (or protect a
// future) dummy, sort descending by value, and accumulate until the sum
// covers amount plus the fee owed by the growing input set at the given
// fee-rate tier. baseVins/baseVouts are the inputs/outputs already
// present in the transaction being built (e.g. the two dummies and the
// seller's ordinal input, and the fixed outputs of §4.4) before payment
// UTXOs are added.
func (c *Classifier) SelectPaymentUTXOs(
	ctx context.Context,
	cfg *config.Config,
	feeProvider providers.FeeProvider,
	candidates []providers.AddressTxsUtxo,
	amount btcutil.Amount,
	baseVins, baseVouts int,
	feeRateTier config.FeeTier,
) ([]providers.AddressTxsUtxo, error) {

	rate, err := feemodel.ResolveRate(ctx, feeProvider, feeRateTier)
	if err != nil {
		return nil, swaperr.Wrap(swaperr.KindProviderError,
			"SelectPaymentUTXOs", "resolve fee rate", err)
	}

	eligible := make([]providers.AddressTxsUtxo, 0, len(candidates))
	for _, u := range candidates {
		if u.Value <= cfg.DummyValue {
			continue
		}

		eligible = append(eligible, u)
	}

	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].Value > eligible[j].Value
	})

	var (
		selected []providers.AddressTxsUtxo
		sum      btcutil.Amount
	)

	for _, u := range eligible {
		if c.mustNotBeTainted(ctx, u) {
			continue
		}

		selected = append(selected, u)
		sum += u.Value

		fee := feemodel.EstimateFee(baseVins+len(selected), baseVouts, rate)
		if sum >= amount+fee {
			return selected, nil
		}
	}

	fee := feemodel.EstimateFee(baseVins+len(selected), baseVouts, rate)
	shortfall := amount + fee - sum

	return nil, swaperr.New(swaperr.KindInsufficientFunds,
		"SelectPaymentUTXOs",
		fmt.Sprintf("need %d more sats (have %d, need %d + fee %d)",
			shortfall, sum, amount, fee))
}
