// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package feemodel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ordswap/engine/config"
	"github.com/ordswap/engine/feemodel"
	"github.com/ordswap/engine/internal/swaptest"
)

func TestEstimateFeeAppliesLegacyCostModel(t *testing.T) {
	t.Parallel()

	// 2 inputs, 3 outputs: 2*180 + 3*34 + 10 = 472 vbytes at 10 sat/vb.
	fee := feemodel.EstimateFee(2, 3, 10)
	require.EqualValues(t, 4_720, fee)
}

func TestEstimateFeeZeroRateYieldsZeroFee(t *testing.T) {
	t.Parallel()

	require.EqualValues(t, 0, feemodel.EstimateFee(1, 1, 0))
	require.EqualValues(t, 224, feemodel.EstimateFee(1, 1, 1))
}

func TestResolveRateFetchesFromFeeProvider(t *testing.T) {
	t.Parallel()

	chain := swaptest.New()
	chain.Rates[config.TierHour] = 7

	rate, err := feemodel.ResolveRate(context.Background(), chain, config.TierHour)
	require.NoError(t, err)
	require.EqualValues(t, 7, rate)
}

func TestResolveRateNormalizesUnrecognizedTier(t *testing.T) {
	t.Parallel()

	chain := swaptest.New()
	chain.Rates[config.TierHour] = 5

	rate, err := feemodel.ResolveRate(context.Background(), chain, config.FeeTier("bogus"))
	require.NoError(t, err)
	require.EqualValues(t, 5, rate)
}
