// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package utxoset

import (
	"context"

	"github.com/ordswap/engine/config"
	"github.com/ordswap/engine/providers"
)

// SelectDummyUTXOs implements spec.md §4.2's dummy selection routine:
// scan candidates in order, accepting the first two that are untainted
// and fall within [cfg.DummyMinValue, cfg.DummyMaxValue]. Returns
// ErrTooFewCandidates if fewer than two qualify.
func (c *Classifier) SelectDummyUTXOs(ctx context.Context, cfg *config.Config, candidates []providers.AddressTxsUtxo) ([2]providers.AddressTxsUtxo, error) {
	var (
		found [2]providers.AddressTxsUtxo
		n     int
	)

	for _, u := range candidates {
		if u.Value < cfg.DummyMinValue || u.Value > cfg.DummyMaxValue {
			continue
		}

		if c.mustNotBeTainted(ctx, u) {
			continue
		}

		found[n] = u
		n++

		if n == 2 {
			return found, nil
		}
	}

	return [2]providers.AddressTxsUtxo{}, ErrTooFewCandidates
}
