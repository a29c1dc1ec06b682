// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainprofile

import (
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/bech32"
)

const (
	pubKeyHashLen = 20
	scriptHashLen = 20
	witnessV0Len20 = 20
	witnessV0Len32 = 32
	witnessV1ProgramLen = 32

	witnessVersion0 = 0
	witnessVersion1 = 1
)

// ClassifyAddress implements spec.md §4.1: attempt base58check decoding
// first (P2PKH/P2SH), then bech32/bech32m decoding constrained to this
// chain's HRP (P2WPKH/P2WSH/P2TR). Any failure at every stage yields
// AddressUnknown, matching the "unknown on all failures" rule.
func (p *Profile) ClassifyAddress(addr string) AddressType {
	t, _, ok := p.decode(addr)
	if !ok {
		return AddressUnknown
	}

	return t
}

// decode classifies addr and returns the decoded 20/32-byte payload
// alongside the type: the pubkey/script hash for base58check addresses,
// or the witness program for bech32/bech32m addresses. It is the single
// decode path shared by ClassifyAddress and PayToAddrScript so the two
// never disagree about what an address means.
func (p *Profile) decode(addr string) (AddressType, []byte, bool) {
	if t, payload, ok := p.classifyBase58(addr); ok {
		return t, payload, true
	}

	if t, payload, ok := p.classifyBech32(addr); ok {
		return t, payload, true
	}

	return AddressUnknown, nil, false
}

// IsValidAddress reports whether addr classifies as anything other than
// AddressUnknown under this profile.
func (p *Profile) IsValidAddress(addr string) bool {
	return p.ClassifyAddress(addr) != AddressUnknown
}

// classifyBase58 attempts base58check decoding against the chain's
// P2PKH/P2SH version bytes.
func (p *Profile) classifyBase58(addr string) (AddressType, []byte, bool) {
	decoded, version, err := base58.CheckDecode(addr)
	if err != nil {
		return AddressUnknown, nil, false
	}

	switch {
	case version == p.params.PubKeyHashAddrID && len(decoded) == pubKeyHashLen:
		return AddressP2PKH, decoded, true
	case version == p.params.ScriptHashAddrID && len(decoded) == scriptHashLen:
		return AddressP2SH, decoded, true
	default:
		return AddressUnknown, nil, false
	}
}

// classifyBech32 attempts bech32/bech32m decoding constrained to the
// chain's HRP. A chain with an empty HRP never matches here, satisfying
// the "empty bech32 disables segwit/taproot" invariant.
func (p *Profile) classifyBech32(addr string) (AddressType, []byte, bool) {
	if p.params.Bech32HRP == "" {
		return AddressUnknown, nil, false
	}

	hrp, data, _, err := bech32.DecodeGeneric(addr)
	if err != nil || hrp != p.params.Bech32HRP || len(data) == 0 {
		return AddressUnknown, nil, false
	}

	witnessVersion := data[0]

	program, err := bech32.ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return AddressUnknown, nil, false
	}

	switch witnessVersion {
	case witnessVersion0:
		if !p.params.SupportsSegwit {
			return AddressUnknown, nil, false
		}

		switch len(program) {
		case witnessV0Len20:
			return AddressP2WPKH, program, true
		case witnessV0Len32:
			return AddressP2WSH, program, true
		default:
			return AddressUnknown, nil, false
		}

	case witnessVersion1:
		if !p.params.SupportsTaproot || len(program) != witnessV1ProgramLen {
			return AddressUnknown, nil, false
		}

		return AddressP2TR, program, true

	default:
		return AddressUnknown, nil, false
	}
}
