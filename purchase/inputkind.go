// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package purchase

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/ordswap/engine/chainprofile"
)

// InputKind is the tagged-variant replacement for stacking every
// optional PSBT input field (non_witness_utxo, witness_utxo,
// redeem_script, tap_internal_key, sighash_type) on one loosely-typed
// object. Each concrete kind below knows how to decorate exactly the
// psbt.PInput fields valid for its own script shape; nothing else
// touches psbt.PInput directly.
type InputKind interface {
	// Decorate fills in in with whatever fields this input shape
	// requires. prevTx is the previous transaction that created the
	// UTXO being spent, and prevOut is that specific output.
	Decorate(in *psbt.PInput, prevTx *wire.MsgTx, prevOut *wire.TxOut)

	// SighashType is the sighash flag the buyer signs each of its own
	// inputs under. Every buyer input in this engine commits to all
	// inputs and outputs (SIGHASH_ALL, or SIGHASH_DEFAULT for taproot
	// inputs); only the seller's spliced-in input at index 2 uses
	// SIGHASH_SINGLE|ANYONECANPAY, and that input's PInput is built by
	// the listing package, not here.
	SighashType() txscript.SigHashType
}

// LegacyInput spends a P2PKH output. It attaches only the non-witness
// UTXO; there is no witness data to speak of.
type LegacyInput struct{}

func (LegacyInput) Decorate(in *psbt.PInput, prevTx *wire.MsgTx, _ *wire.TxOut) {
	in.NonWitnessUtxo = prevTx
	in.SighashType = txscript.SigHashAll
}

func (LegacyInput) SighashType() txscript.SigHashType {
	return txscript.SigHashAll
}

// NestedSegwitInput spends a P2SH-wrapped P2WPKH output (spec.md §4.4's
// "P2SH-wrapped-segwit inputs" clause). RedeemScript is the
// p2wpkh(buyer_pubkey) witness program the P2SH hash commits to.
type NestedSegwitInput struct {
	RedeemScript []byte
}

func (n NestedSegwitInput) Decorate(in *psbt.PInput, prevTx *wire.MsgTx, prevOut *wire.TxOut) {
	in.NonWitnessUtxo = prevTx
	in.WitnessUtxo = &wire.TxOut{Value: prevOut.Value, PkScript: prevOut.PkScript}
	in.RedeemScript = n.RedeemScript
	in.SighashType = txscript.SigHashAll
}

func (NestedSegwitInput) SighashType() txscript.SigHashType {
	return txscript.SigHashAll
}

// NativeSegwitInput spends a P2WPKH or P2WSH output directly.
type NativeSegwitInput struct{}

func (NativeSegwitInput) Decorate(in *psbt.PInput, prevTx *wire.MsgTx, prevOut *wire.TxOut) {
	// As with the teacher's addInputInfoSegWitV0, include the full
	// non-witness UTXO as well (CVE-2020-14199) alongside the witness
	// view.
	in.NonWitnessUtxo = prevTx
	in.WitnessUtxo = &wire.TxOut{Value: prevOut.Value, PkScript: prevOut.PkScript}
	in.SighashType = txscript.SigHashAll
}

func (NativeSegwitInput) SighashType() txscript.SigHashType {
	return txscript.SigHashAll
}

// TaprootInput spends a P2TR output. InternalKey is the spender's
// x-only taproot internal key.
type TaprootInput struct {
	InternalKey *btcec.PublicKey
}

func (t TaprootInput) Decorate(in *psbt.PInput, _ *wire.MsgTx, prevOut *wire.TxOut) {
	in.WitnessUtxo = &wire.TxOut{Value: prevOut.Value, PkScript: prevOut.PkScript}
	in.SighashType = txscript.SigHashDefault

	if t.InternalKey != nil {
		in.TaprootInternalKey = schnorrSerialize(t.InternalKey)
	}
}

func (TaprootInput) SighashType() txscript.SigHashType {
	return txscript.SigHashDefault
}

// schnorrSerialize returns the 32-byte x-only encoding of a public key.
func schnorrSerialize(pub *btcec.PublicKey) []byte {
	return pub.SerializeCompressed()[1:]
}

// InputKindForAddressType selects the InputKind implied by an address's
// classification (spec.md §9's address-discrimination guidance),
// synthesizing the P2SH-wrapped-segwit redeem script when needed.
// pubKey is required only for AddressP2SH; an empty pubKey there yields
// ErrMissingPaymentPubKey.
func InputKindForAddressType(addrType chainprofile.AddressType, pubKey []byte, internalKey *btcec.PublicKey) (InputKind, error) {
	switch addrType {
	case chainprofile.AddressP2PKH:
		return LegacyInput{}, nil

	case chainprofile.AddressP2SH:
		redeem, err := p2wpkhRedeemScript(pubKey)
		if err != nil {
			return nil, err
		}

		return NestedSegwitInput{RedeemScript: redeem}, nil

	case chainprofile.AddressP2WPKH, chainprofile.AddressP2WSH:
		return NativeSegwitInput{}, nil

	case chainprofile.AddressP2TR:
		return TaprootInput{InternalKey: internalKey}, nil

	default:
		return nil, ErrUnsupportedAddressType
	}
}

// p2wpkhRedeemScript builds the standard redeem script `OP_0 <hash160(pubkey)>`
// that a P2SH-wrapped-segwit address commits to.
func p2wpkhRedeemScript(pubKey []byte) ([]byte, error) {
	if len(pubKey) == 0 {
		return nil, ErrMissingPaymentPubKey
	}

	hash := btcutil.Hash160(pubKey)

	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddData(hash).
		Script()
}
