// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainprofile_test

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/stretchr/testify/require"

	"github.com/ordswap/engine/chainprofile"
)

// encodeP2PKH builds a syntactically valid base58check address with the
// given version byte (P2PKH or P2SH, for any profile) from an arbitrary
// 20-byte hash.
func encodeP2PKH(t *testing.T, versionByte byte, hash [20]byte) string {
	t.Helper()

	return base58.CheckEncode(hash[:], versionByte)
}

// encodeBech32 builds a syntactically valid bech32/bech32m address for
// the given hrp, witness version, and program.
func encodeBech32(t *testing.T, hrp string, witnessVersion byte, program []byte) string {
	t.Helper()

	converted, err := bech32.ConvertBits(program, 8, 5, true)
	require.NoError(t, err)

	data := append([]byte{witnessVersion}, converted...)

	var addr string
	if witnessVersion != 0 {
		addr, err = bech32.EncodeM(hrp, data)
	} else {
		addr, err = bech32.Encode(hrp, data)
	}
	require.NoError(t, err)

	return addr
}

func TestClassifyAddressMainnet(t *testing.T) {
	t.Parallel()

	var hash20 [20]byte
	for i := range hash20 {
		hash20[i] = byte(i)
	}

	var hash32 [32]byte
	for i := range hash32 {
		hash32[i] = byte(i)
	}

	p2pkh := encodeP2PKH(t, 0x00, hash20)
	p2sh := encodeP2PKH(t, 0x05, hash20)
	p2wpkh := encodeBech32(t, "bc", 0, hash20[:])
	p2wsh := encodeBech32(t, "bc", 0, hash32[:])
	p2tr := encodeBech32(t, "bc", 1, hash32[:])

	require.Equal(t, chainprofile.AddressP2PKH, chainprofile.BitcoinMainnet.ClassifyAddress(p2pkh))
	require.Equal(t, chainprofile.AddressP2SH, chainprofile.BitcoinMainnet.ClassifyAddress(p2sh))
	require.Equal(t, chainprofile.AddressP2WPKH, chainprofile.BitcoinMainnet.ClassifyAddress(p2wpkh))
	require.Equal(t, chainprofile.AddressP2WSH, chainprofile.BitcoinMainnet.ClassifyAddress(p2wsh))
	require.Equal(t, chainprofile.AddressP2TR, chainprofile.BitcoinMainnet.ClassifyAddress(p2tr))

	require.True(t, chainprofile.BitcoinMainnet.IsValidAddress(p2pkh))
	require.False(t, chainprofile.BitcoinMainnet.IsValidAddress("not-an-address"))
}

func TestClassifyAddressLegacyChainHasNoSegwit(t *testing.T) {
	t.Parallel()

	var hash20 [20]byte

	p2pkh := encodeP2PKH(t, 0x10, hash20)
	require.Equal(t, chainprofile.AddressP2PKH, chainprofile.LegacyUTXOChain.ClassifyAddress(p2pkh))

	// A bech32 address is meaningless on a chain with an empty HRP.
	segwitLikeOnBitcoin := encodeBech32(t, "bc", 0, hash20[:])
	require.Equal(t, chainprofile.AddressUnknown, chainprofile.LegacyUTXOChain.ClassifyAddress(segwitLikeOnBitcoin))
}

func TestParamsValidateRejectsInconsistentCapabilities(t *testing.T) {
	t.Parallel()

	_, err := chainprofile.New(chainprofile.Params{
		Name:            "broken",
		Bech32HRP:       "",
		SupportsSegwit:  true,
		SupportsTaproot: false,
	})
	require.ErrorIs(t, err, chainprofile.ErrEmptyBech32RequiresNoSegwit)
}

func TestDustAndFeeAccessors(t *testing.T) {
	t.Parallel()

	require.EqualValues(t, 546, chainprofile.BitcoinMainnet.DustLimit())
	require.EqualValues(t, 1, chainprofile.BitcoinMainnet.MinFeeRate())
	require.True(t, chainprofile.BitcoinMainnet.SupportsSegwit())
	require.True(t, chainprofile.BitcoinMainnet.SupportsTaproot())
	require.False(t, chainprofile.LegacyUTXOChain.SupportsSegwit())
}
