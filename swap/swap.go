// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package swap implements component C5: validating a signed listing
// against the protocol invariants of spec.md §4.5 and splicing it into
// a buyer half-PSBT to produce a fully-signed transaction candidate.
package swap

import (
	"bytes"
	"context"
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btclog"

	"github.com/ordswap/engine/listing"
	"github.com/ordswap/engine/providers"
	"github.com/ordswap/engine/purchase"
	"github.com/ordswap/engine/session"
	"github.com/ordswap/engine/swaperr"
)

// emptySchnorrSentinel is the truncated placeholder witness a signer
// leaves behind when it declines to sign a taproot input; a real
// finalized taproot witness is never this short.
var emptySchnorrSentinel = []byte{0x01, 0x41}

// log is the package logger, following the teacher's UseLogger pattern
// (see bwtest/wallet_logging.go's use of wallet.UseLogger).
var log = btclog.Disabled

// UseLogger sets the package-wide logger.
func UseLogger(logger btclog.Logger) {
	log = logger
}

var (
	// ErrInputCount is returned when a signed listing does not carry
	// exactly one input.
	ErrInputCount = errors.New("swap: signed listing must have exactly one input")

	// ErrNotFinalized is returned when a signed listing's single input
	// carries no usable finalized signature data.
	ErrNotFinalized = errors.New("swap: signed listing input is not finalized")

	// ErrTokenMismatch is returned when the listed outpoint does not
	// resolve to the claimed token id.
	ErrTokenMismatch = errors.New("swap: outpoint does not resolve to the claimed token id")

	// ErrPriceMismatch is returned when the listing's single output
	// value does not match the expected seller payout.
	ErrPriceMismatch = errors.New("swap: invalid price")

	// ErrReceiveAddressMismatch is returned when the listing's output
	// does not pay the claimed seller receive address.
	ErrReceiveAddressMismatch = errors.New("swap: receive address mismatch")

	// ErrSellerMismatch is returned when the input being spent was not
	// owned by the inscription's recorded owner.
	ErrSellerMismatch = errors.New("swap: seller address does not match item owner")

	// ErrNoPrevOutScript is returned when a signed listing carries
	// neither a non-witness nor a witness UTXO for its single input.
	ErrNoPrevOutScript = errors.New("swap: signed listing input carries no previous output data")

	// ErrMissingPlaceholder is returned by Merge when the buyer PSBT has
	// no input at the seller placeholder slot.
	ErrMissingPlaceholder = errors.New("swap: buyer psbt has no seller placeholder input")
)

// VerifyRequest carries the claims a caller wants checked against a
// signed listing PSBT (spec.md §4.5).
type VerifyRequest struct {
	SignedListingPSBT    *psbt.Packet
	TokenID              string
	Price                btcutil.Amount
	SellerReceiveAddress string
	TapInternalKey       *btcec.PublicKey
}

// VerifyResult is the outcome of a successful VerifySignedListing call.
type VerifyResult struct {
	// Delisted is true when Price equals the configured delisting
	// signal price, in which case the price and receive-address checks
	// (§4.5 checks 4 and 5) were skipped by design.
	Delisted bool

	// Item is the inscription record the listing's input resolves to.
	Item providers.Item
}

// VerifySignedListing implements spec.md §4.5's six checks. Any
// mismatch surfaces as a swaperr of kind InvalidArgument; a nil error
// means the listing is valid and safe to merge.
func VerifySignedListing(ctx context.Context, sess *session.Session, req VerifyRequest) (*VerifyResult, error) {
	tx := req.SignedListingPSBT.UnsignedTx

	// Check 1: input count.
	if len(tx.TxIn) != 1 || len(req.SignedListingPSBT.Inputs) != 1 || len(tx.TxOut) != 1 {
		return nil, swaperr.Wrap(swaperr.KindInvalidArgument, "swap.VerifySignedListing",
			"input/output count", ErrInputCount)
	}

	in := &req.SignedListingPSBT.Inputs[0]

	// Check 2: signature presence.
	if err := checkFinalized(ctx, sess, req, in); err != nil {
		return nil, err
	}

	// Check 3: inscription identity.
	outpoint := providers.Outpoint{
		Txid: tx.TxIn[0].PreviousOutPoint.Hash,
		Vout: tx.TxIn[0].PreviousOutPoint.Index,
	}

	item, err := sess.Providers.Item.GetTokenByOutput(ctx, outpoint)
	if err != nil {
		return nil, swaperr.Wrap(swaperr.KindProviderError, "swap.VerifySignedListing",
			"resolve inscription for listed outpoint", err)
	}

	if item == nil || item.ID != req.TokenID {
		return nil, swaperr.Wrap(swaperr.KindInvalidArgument, "swap.VerifySignedListing",
			"token id mismatch", ErrTokenMismatch)
	}

	// Check 6: seller authenticity. Checked ahead of price/output
	// verification so a delisting still proves the caller owns the
	// inscription.
	prevScript, err := prevOutScript(tx, in)
	if err != nil {
		return nil, swaperr.Wrap(swaperr.KindInvalidArgument, "swap.VerifySignedListing",
			"locate previous output script", err)
	}

	sellerAddr, err := sess.Chain.ExtractAddress(prevScript)
	if err != nil || sellerAddr != item.Owner {
		return nil, swaperr.Wrap(swaperr.KindInvalidArgument, "swap.VerifySignedListing",
			"seller address mismatch", ErrSellerMismatch)
	}

	result := &VerifyResult{Item: *item}

	if req.Price == sess.Config.DelistMagicPrice {
		result.Delisted = true

		log.Infof("listing for %s carries the delist magic price, treating as delisting", outpoint)

		return result, nil
	}

	// Check 4: price correctness.
	makerFeeBP := sess.Providers.MakerFeeBP(ctx, item.Owner)
	expectedPayout := listing.SellerPayout(req.Price, makerFeeBP, item.OutputValue)

	if btcutil.Amount(tx.TxOut[0].Value) != expectedPayout {
		return nil, swaperr.Wrap(swaperr.KindInvalidArgument, "swap.VerifySignedListing",
			"invalid price", ErrPriceMismatch)
	}

	// Check 5: receive address.
	expectedScript, err := sess.Chain.PayToAddrScript(req.SellerReceiveAddress)
	if err != nil || !bytes.Equal(expectedScript, tx.TxOut[0].PkScript) {
		return nil, swaperr.Wrap(swaperr.KindInvalidArgument, "swap.VerifySignedListing",
			"receive address mismatch", ErrReceiveAddressMismatch)
	}

	return result, nil
}

// checkFinalized implements check 2: the finalized signature data must
// be present and, for taproot inputs, must not be the truncated
// placeholder witness; additionally the node's own PSBT analysis must
// agree the input is final or, when the analyze_psbt call fails, the
// finalized script must execute successfully locally.
func checkFinalized(ctx context.Context, sess *session.Session, req VerifyRequest, in *psbt.PInput) error {
	if req.TapInternalKey != nil {
		if len(in.FinalScriptWitness) == 0 || bytes.Equal(in.FinalScriptWitness, emptySchnorrSentinel) {
			return swaperr.Wrap(swaperr.KindInvalidArgument, "swap.VerifySignedListing",
				"missing or placeholder taproot witness", ErrNotFinalized)
		}
	} else if len(in.FinalScriptSig) == 0 && len(in.FinalScriptWitness) == 0 {
		return swaperr.Wrap(swaperr.KindInvalidArgument, "swap.VerifySignedListing",
			"missing finalized signature", ErrNotFinalized)
	}

	b64, err := req.SignedListingPSBT.B64Encode()
	if err != nil {
		return swaperr.Wrap(swaperr.KindProtocolError, "swap.VerifySignedListing",
			"encode signed listing for node analysis", err)
	}

	analysis, err := sess.Providers.RPC.AnalyzePsbt(ctx, b64)
	if err != nil {
		log.Warnf("node analyze_psbt unavailable (%v), falling back to local script execution", err)

		return verifyScriptExecutesLocally(req.SignedListingPSBT, in)
	}

	if len(analysis.Inputs) != 1 || !analysis.Inputs[0].IsFinal {
		return swaperr.Wrap(swaperr.KindInvalidArgument, "swap.VerifySignedListing",
			"node reports listing input as not final", ErrNotFinalized)
	}

	return nil
}

// prevOutputFetcher builds a txscript.PrevOutputFetcher from a PSBT
// packet's own recorded UTXO data, preferring the non-witness UTXO and
// falling back to the witness UTXO per input, grounded on the teacher's
// PsbtPrevOutputFetcher (wallet/psbt.go).
func prevOutputFetcher(packet *psbt.Packet) *txscript.MultiPrevOutFetcher {
	fetcher := txscript.NewMultiPrevOutFetcher(nil)

	for idx, txIn := range packet.UnsignedTx.TxIn {
		in := packet.Inputs[idx]

		switch {
		case in.NonWitnessUtxo != nil:
			prevIndex := txIn.PreviousOutPoint.Index
			fetcher.AddPrevOut(txIn.PreviousOutPoint, in.NonWitnessUtxo.TxOut[prevIndex])

		case in.WitnessUtxo != nil:
			fetcher.AddPrevOut(txIn.PreviousOutPoint, in.WitnessUtxo)
		}
	}

	return fetcher
}

// verifyScriptExecutesLocally is the pure-Go stand-in for the node's
// analyze_psbt call: it recomputes the sighash and runs the finalized
// scriptSig/witness through a txscript.Engine against the input's own
// recorded previous output, exactly as the teacher's wallet.go verifies
// its own signed inputs before broadcast (see the NewEngine call in
// Wallet.PublishTransaction's signature-check pass).
func verifyScriptExecutesLocally(packet *psbt.Packet, in *psbt.PInput) error {
	tx, err := psbt.Extract(packet)
	if err != nil {
		return swaperr.Wrap(swaperr.KindInvalidArgument, "swap.VerifySignedListing",
			"extract finalized transaction for local verification", err)
	}

	prevScript, err := prevOutScript(tx, in)
	if err != nil {
		return swaperr.Wrap(swaperr.KindInvalidArgument, "swap.VerifySignedListing",
			"locate previous output for local script execution", err)
	}

	prevValue, err := prevOutValue(tx, in)
	if err != nil {
		return swaperr.Wrap(swaperr.KindInvalidArgument, "swap.VerifySignedListing",
			"locate previous output value for local script execution", err)
	}

	fetcher := prevOutputFetcher(packet)
	sigHashes := txscript.NewTxSigHashes(tx, fetcher)

	vm, err := txscript.NewEngine(
		prevScript, tx, 0, txscript.StandardVerifyFlags, nil,
		sigHashes, prevValue, fetcher,
	)
	if err != nil {
		return swaperr.Wrap(swaperr.KindInvalidArgument, "swap.VerifySignedListing",
			"build local verification engine", err)
	}

	if err := vm.Execute(); err != nil {
		return swaperr.Wrap(swaperr.KindInvalidArgument, "swap.VerifySignedListing",
			"local script execution failed", err)
	}

	return nil
}

// prevOutScript returns the pkScript of the output a PSBT input spends,
// preferring the non-witness UTXO and falling back to the witness UTXO,
// mirroring the teacher's PsbtPrevOutputFetcher preference order.
func prevOutScript(tx *wire.MsgTx, in *psbt.PInput) ([]byte, error) {
	if in.NonWitnessUtxo != nil {
		idx := tx.TxIn[0].PreviousOutPoint.Index
		if int(idx) >= len(in.NonWitnessUtxo.TxOut) {
			return nil, ErrNoPrevOutScript
		}

		return in.NonWitnessUtxo.TxOut[idx].PkScript, nil
	}

	if in.WitnessUtxo != nil {
		return in.WitnessUtxo.PkScript, nil
	}

	return nil, ErrNoPrevOutScript
}

// prevOutValue mirrors prevOutScript for the spent output's value,
// needed by txscript.NewEngine's taproot/witness sighash machinery.
func prevOutValue(tx *wire.MsgTx, in *psbt.PInput) (int64, error) {
	if in.NonWitnessUtxo != nil {
		idx := tx.TxIn[0].PreviousOutPoint.Index
		if int(idx) >= len(in.NonWitnessUtxo.TxOut) {
			return 0, ErrNoPrevOutScript
		}

		return in.NonWitnessUtxo.TxOut[idx].Value, nil
	}

	if in.WitnessUtxo != nil {
		return in.WitnessUtxo.Value, nil
	}

	return 0, ErrNoPrevOutScript
}

// Merge implements the Combiner: it splices the seller's single input
// and PSBT input metadata into the buyer PSBT's placeholder slot
// (purchase.SellerInputIndex), leaving every other field untouched. It
// is a pure function of its two arguments: neither input packet is
// mutated, and two calls with the same inputs produce byte-identical
// output (spec.md invariant I8).
func Merge(sellerPSBT, buyerPSBT *psbt.Packet) (*psbt.Packet, error) {
	if len(sellerPSBT.UnsignedTx.TxIn) != 1 || len(sellerPSBT.Inputs) != 1 {
		return nil, swaperr.Wrap(swaperr.KindInvalidArgument, "swap.Merge",
			"seller psbt input count", ErrInputCount)
	}

	idx := purchase.SellerInputIndex
	if idx >= len(buyerPSBT.UnsignedTx.TxIn) || idx >= len(buyerPSBT.Inputs) {
		return nil, swaperr.Wrap(swaperr.KindInvalidArgument, "swap.Merge",
			"buyer psbt has no placeholder slot", ErrMissingPlaceholder)
	}

	merged := &psbt.Packet{
		UnsignedTx: buyerPSBT.UnsignedTx.Copy(),
		Inputs:     append([]psbt.PInput(nil), buyerPSBT.Inputs...),
		Outputs:    append([]psbt.POutput(nil), buyerPSBT.Outputs...),
		Unknowns:   append([]*psbt.Unknown(nil), buyerPSBT.Unknowns...),
	}

	sellerTxIn := sellerPSBT.UnsignedTx.TxIn[0]
	merged.UnsignedTx.TxIn[idx].PreviousOutPoint = sellerTxIn.PreviousOutPoint
	merged.UnsignedTx.TxIn[idx].Sequence = sellerTxIn.Sequence
	merged.UnsignedTx.TxIn[idx].SignatureScript = append([]byte(nil), sellerTxIn.SignatureScript...)
	merged.UnsignedTx.TxIn[idx].Witness = cloneWitness(sellerTxIn.Witness)

	merged.Inputs[idx] = sellerPSBT.Inputs[0]

	log.Debugf("merged seller listing into buyer purchase at input %d", idx)

	return merged, nil
}

func cloneWitness(w [][]byte) [][]byte {
	if w == nil {
		return nil
	}

	out := make([][]byte, len(w))
	for i, item := range w {
		out[i] = append([]byte(nil), item...)
	}

	return out
}
