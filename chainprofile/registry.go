// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainprofile

import "github.com/btcsuite/btcd/btcutil"

// Bitcoin mainnet/testnet3/signet are written out with the same
// version bytes and HRPs as chaincfg's params (the teacher repo depends on
// chaincfg.Params throughout wallet/wallet.go for exactly this data).
// A "legacy" profile demonstrates the empty-bech32 branch of the
// invariant in spec.md §3 and matches scenario S2 (a Junkcoin-style,
// non-segwit UTXO chain).
var (
	// BitcoinMainnet is the standard Bitcoin mainnet profile: segwit and
	// taproot capable, dust limit 546 sats.
	BitcoinMainnet = mustNew(Params{
		Name:                  "bitcoin-mainnet",
		Symbol:                "BTC",
		PubKeyHashAddrID:      0x00,
		ScriptHashAddrID:      0x05,
		Bech32HRP:             "bc",
		SupportsSegwit:        true,
		SupportsTaproot:       true,
		DustLimitSats:         546,
		MinFeeRateSatPerVByte: 1,
	})

	// BitcoinTestnet3 is the Bitcoin testnet3 profile.
	BitcoinTestnet3 = mustNew(Params{
		Name:                  "bitcoin-testnet3",
		Symbol:                "tBTC",
		PubKeyHashAddrID:      0x6f,
		ScriptHashAddrID:      0xc4,
		Bech32HRP:             "tb",
		SupportsSegwit:        true,
		SupportsTaproot:       true,
		DustLimitSats:         546,
		MinFeeRateSatPerVByte: 1,
	})

	// BitcoinSignet is the Bitcoin signet profile.
	BitcoinSignet = mustNew(Params{
		Name:                  "bitcoin-signet",
		Symbol:                "sBTC",
		PubKeyHashAddrID:      0x6f,
		ScriptHashAddrID:      0xc4,
		Bech32HRP:             "tb",
		SupportsSegwit:        true,
		SupportsTaproot:       true,
		DustLimitSats:         546,
		MinFeeRateSatPerVByte: 1,
	})

	// LegacyUTXOChain is an example non-segwit UTXO chain (scenario S2 of
	// spec.md §8): base58-only addressing, no bech32 HRP, and both
	// capability flags forced false per the empty-HRP invariant.
	LegacyUTXOChain = mustNew(Params{
		Name:                  "legacy-utxo-chain",
		Symbol:                "JKC",
		PubKeyHashAddrID:      0x10,
		ScriptHashAddrID:      0x05,
		Bech32HRP:             "",
		SupportsSegwit:        false,
		SupportsTaproot:       false,
		DustLimitSats:         btcutil.Amount(1000),
		MinFeeRateSatPerVByte: 1,
	})
)

func mustNew(p Params) *Profile {
	profile, err := New(p)
	if err != nil {
		panic(err)
	}

	return profile
}

// registry maps the well-known profile names to their instances, so a
// caller taking a chain name from a config file or command-line flag
// does not need a hand-written switch statement.
var registry = map[string]*Profile{
	BitcoinMainnet.Name():  BitcoinMainnet,
	BitcoinTestnet3.Name(): BitcoinTestnet3,
	BitcoinSignet.Name():   BitcoinSignet,
	LegacyUTXOChain.Name(): LegacyUTXOChain,
}

// ByName looks up one of the well-known profiles by its Params.Name.
func ByName(name string) (*Profile, bool) {
	p, ok := registry[name]
	return p, ok
}
