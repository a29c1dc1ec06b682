// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainprofile implements component C1 of the swap engine: a
// pure, immutable description of a Bitcoin-family chain's address and
// fee parameters, plus the address classifier every other component
// uses to branch on a closed AddressType enum instead of re-parsing
// strings (see SPEC_FULL.md §4, redesign guidance in spec.md §9).
package chainprofile

import (
	"errors"

	"github.com/btcsuite/btcd/btcutil"
)

// ErrEmptyBech32RequiresNoSegwit is returned by Validate when a Params
// value claims segwit or taproot support without a bech32 HRP to encode
// those address types in.
var ErrEmptyBech32RequiresNoSegwit = errors.New(
	"chain profile: empty bech32 hrp requires supports_segwit=false " +
		"and supports_taproot=false",
)

// AddressType is the closed enum of script shapes a chain profile can
// classify an address as, per spec.md §3.
type AddressType uint8

const (
	// AddressUnknown is returned for any address the profile cannot
	// classify against its own parameters.
	AddressUnknown AddressType = iota

	// AddressP2PKH is a base58check pay-to-pubkey-hash address.
	AddressP2PKH

	// AddressP2SH is a base58check pay-to-script-hash address (also used
	// for P2SH-wrapped segwit).
	AddressP2SH

	// AddressP2WPKH is a bech32, witness-version-0, 20-byte-program
	// address.
	AddressP2WPKH

	// AddressP2WSH is a bech32, witness-version-0, 32-byte-program
	// address.
	AddressP2WSH

	// AddressP2TR is a bech32m, witness-version-1, 32-byte-program
	// address.
	AddressP2TR
)

// String implements fmt.Stringer.
func (a AddressType) String() string {
	switch a {
	case AddressP2PKH:
		return "p2pkh"
	case AddressP2SH:
		return "p2sh"
	case AddressP2WPKH:
		return "p2wpkh"
	case AddressP2WSH:
		return "p2wsh"
	case AddressP2TR:
		return "p2tr"
	default:
		return "unknown"
	}
}

// Params is the per-chain parameter record described in spec.md §3.
// It is deliberately a plain, comparable value: no methods on Params
// itself hold state, and every Profile built from it is immutable.
type Params struct {
	// Name is the chain's human-readable name, e.g. "bitcoin-mainnet".
	Name string

	// Symbol is the chain's ticker, e.g. "BTC".
	Symbol string

	// PubKeyHashAddrID is the base58check version byte for P2PKH
	// addresses.
	PubKeyHashAddrID byte

	// ScriptHashAddrID is the base58check version byte for P2SH
	// addresses.
	ScriptHashAddrID byte

	// Bech32HRP is the human-readable part used for bech32/bech32m
	// addresses on this chain. An empty string disables segwit and
	// taproot address classification for the chain (spec.md §3
	// invariant).
	Bech32HRP string

	// SupportsSegwit indicates whether P2WPKH/P2WSH addresses are valid
	// on this chain.
	SupportsSegwit bool

	// SupportsTaproot indicates whether P2TR addresses are valid on this
	// chain.
	SupportsTaproot bool

	// DustLimitSats is the minimum satoshi value considered non-dust.
	DustLimitSats btcutil.Amount

	// MinFeeRateSatPerVByte is the chain's minimum relay fee rate.
	MinFeeRateSatPerVByte btcutil.Amount
}

// Validate checks the invariant from spec.md §3: an empty bech32 HRP
// implies both segwit and taproot support are disabled.
func (p Params) Validate() error {
	if p.Bech32HRP == "" && (p.SupportsSegwit || p.SupportsTaproot) {
		return ErrEmptyBech32RequiresNoSegwit
	}

	return nil
}

// Profile is the immutable, validated wrapper around Params that the
// rest of the engine consumes. Build one with New.
type Profile struct {
	params Params
}

// New validates params and returns an immutable Profile, or an error if
// the chain-family invariant is violated.
func New(params Params) (*Profile, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	return &Profile{params: params}, nil
}

// Params returns a copy of the chain parameters backing this profile.
func (p *Profile) Params() Params {
	return p.params
}

// Name returns the chain's name.
func (p *Profile) Name() string {
	return p.params.Name
}

// DustLimit returns the chain's dust limit in satoshis.
func (p *Profile) DustLimit() btcutil.Amount {
	return p.params.DustLimitSats
}

// MinFeeRate returns the chain's minimum relay fee rate in sat/vbyte.
func (p *Profile) MinFeeRate() btcutil.Amount {
	return p.params.MinFeeRateSatPerVByte
}

// SupportsSegwit reports whether this chain supports segwit v0 address
// types.
func (p *Profile) SupportsSegwit() bool {
	return p.params.SupportsSegwit
}

// SupportsTaproot reports whether this chain supports taproot
// addresses.
func (p *Profile) SupportsTaproot() bool {
	return p.params.SupportsTaproot
}
