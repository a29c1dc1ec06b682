// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainprofile

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/btcsuite/btcd/txscript"
)

// ErrUnclassifiableAddress is returned by PayToAddrScript when addr does
// not classify against this profile.
var ErrUnclassifiableAddress = errors.New("chain profile: address does not classify on this chain")

// ErrUnclassifiablePkScript is returned by ExtractAddress when pkScript
// does not match any of the standard templates this profile knows how
// to render back into an address.
var ErrUnclassifiablePkScript = errors.New("chain profile: pkScript does not match a known template")

// PayToAddrScript builds the output script paying addr, using the same
// decode this profile's ClassifyAddress relies on so the two can never
// disagree about what an address means.
func (p *Profile) PayToAddrScript(addr string) ([]byte, error) {
	addrType, payload, ok := p.decode(addr)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnclassifiableAddress, addr)
	}

	switch addrType {
	case AddressP2PKH:
		return txscript.NewScriptBuilder().
			AddOp(txscript.OP_DUP).
			AddOp(txscript.OP_HASH160).
			AddData(payload).
			AddOp(txscript.OP_EQUALVERIFY).
			AddOp(txscript.OP_CHECKSIG).
			Script()

	case AddressP2SH:
		return txscript.NewScriptBuilder().
			AddOp(txscript.OP_HASH160).
			AddData(payload).
			AddOp(txscript.OP_EQUAL).
			Script()

	case AddressP2WPKH, AddressP2WSH:
		return txscript.NewScriptBuilder().
			AddOp(txscript.OP_0).
			AddData(payload).
			Script()

	case AddressP2TR:
		return txscript.NewScriptBuilder().
			AddOp(txscript.OP_1).
			AddData(payload).
			Script()

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnclassifiableAddress, addr)
	}
}

// ExtractAddress is the inverse of PayToAddrScript: given a previous
// output's pkScript, it recognizes the standard P2PKH/P2SH/P2WPKH/
// P2WSH/P2TR templates and re-encodes the embedded hash or witness
// program as an address on this chain. Used by the Combiner's seller
// authenticity check (spec.md §4.5 check 6), which must go the opposite
// direction from ClassifyAddress.
func (p *Profile) ExtractAddress(pkScript []byte) (string, error) {
	switch {
	case len(pkScript) == 25 &&
		pkScript[0] == txscript.OP_DUP &&
		pkScript[1] == txscript.OP_HASH160 &&
		pkScript[2] == 0x14 &&
		pkScript[23] == txscript.OP_EQUALVERIFY &&
		pkScript[24] == txscript.OP_CHECKSIG:

		return base58.CheckEncode(pkScript[3:23], p.params.PubKeyHashAddrID), nil

	case len(pkScript) == 23 &&
		pkScript[0] == txscript.OP_HASH160 &&
		pkScript[1] == 0x14 &&
		pkScript[22] == txscript.OP_EQUAL:

		return base58.CheckEncode(pkScript[2:22], p.params.ScriptHashAddrID), nil

	case len(pkScript) == 22 && pkScript[0] == txscript.OP_0 && pkScript[1] == 0x14:
		return p.encodeWitnessAddress(0, pkScript[2:22])

	case len(pkScript) == 34 && pkScript[0] == txscript.OP_0 && pkScript[1] == 0x20:
		return p.encodeWitnessAddress(0, pkScript[2:34])

	case len(pkScript) == 34 && pkScript[0] == txscript.OP_1 && pkScript[1] == 0x20:
		return p.encodeWitnessAddress(1, pkScript[2:34])

	default:
		return "", fmt.Errorf("%w", ErrUnclassifiablePkScript)
	}
}

// encodeWitnessAddress bech32/bech32m-encodes a witness program at the
// given version for this chain's HRP.
func (p *Profile) encodeWitnessAddress(witnessVersion byte, program []byte) (string, error) {
	if p.params.Bech32HRP == "" {
		return "", fmt.Errorf("%w", ErrUnclassifiablePkScript)
	}

	converted, err := bech32.ConvertBits(program, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("chain profile: convert witness program: %w", err)
	}

	data := append([]byte{witnessVersion}, converted...)

	if witnessVersion != 0 {
		return bech32.EncodeM(p.params.Bech32HRP, data)
	}

	return bech32.Encode(p.params.Bech32HRP, data)
}
