// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainprofile_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ordswap/engine/chainprofile"
)

func TestIsDustBelowChainDustLimit(t *testing.T) {
	t.Parallel()

	p2wpkh := append([]byte{0x00, 0x14}, make([]byte, 20)...)

	require.True(t, chainprofile.BitcoinMainnet.IsDust(545, p2wpkh))
	require.False(t, chainprofile.BitcoinMainnet.IsDust(546, p2wpkh))
}

func TestIsDustHonorsRelayFeeHeuristicAboveChainLimit(t *testing.T) {
	t.Parallel()

	// A P2WPKH output above the chain's own 546-sat dust limit is still
	// evaluated against the relay-fee-based heuristic (output size plus
	// the input that would eventually spend it), so a large enough value
	// must clear both bars.
	p2wpkh := append([]byte{0x00, 0x14}, make([]byte, 20)...)

	require.False(t, chainprofile.BitcoinMainnet.IsDust(10_000, p2wpkh))
}

func TestIsDustOnLegacyChainUsesItsOwnLimit(t *testing.T) {
	t.Parallel()

	p2pkh := append([]byte{0x76, 0xa9, 0x14}, append(make([]byte, 20), 0x88, 0xac)...)

	require.True(t, chainprofile.LegacyUTXOChain.IsDust(999, p2pkh))
	require.False(t, chainprofile.LegacyUTXOChain.IsDust(100_000, p2pkh))
}
