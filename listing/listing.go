// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package listing implements component C3, the seller half of the
// protocol: a single-input, single-output PSBT signed under
// SIGHASH_SINGLE|ANYONECANPAY so that it composes with an arbitrary
// buyer half-transaction built later by the purchase package (spec.md
// §4.3).
package listing

import (
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btclog"

	"github.com/ordswap/engine/internal/rawtx"
	"github.com/ordswap/engine/session"
	"github.com/ordswap/engine/state"
	"github.com/ordswap/engine/swaperr"
)

// log is the package logger, following the teacher's UseLogger pattern
// (see bwtest/wallet_logging.go's use of wallet.UseLogger).
var log = btclog.Disabled

// UseLogger sets the package-wide logger.
func UseLogger(logger btclog.Logger) {
	log = logger
}

// SellerSighashType is the fixed sighash discipline every listing signs
// under: this commits the seller's signature only to this input and to
// the output at the same index in whatever final transaction it ends up
// in (spec.md §4.3).
const SellerSighashType = txscript.SigHashSingle | txscript.SigHashAnyOneCanPay

// ErrMissingTapInternalKey is returned when the listed inscription sits
// in a taproot output but the caller supplied no internal key.
var ErrMissingTapInternalKey = errors.New("listing: taproot output requires tap_internal_key")

// SellerPayout computes spec.md §4.3's payout formula:
// price - floor(price*makerFeeBP/10000) + outputValue. The +outputValue
// term reimburses the postage carried by the inscription output being
// spent.
func SellerPayout(price btcutil.Amount, makerFeeBP uint16, outputValue btcutil.Amount) btcutil.Amount {
	fee := btcutil.Amount(int64(price) * int64(makerFeeBP) / 10000)

	return price - fee + outputValue
}

// Build produces the seller half-PSBT for seller, fetching the
// inscription's parent transaction from the node so it can be attached
// as non-witness UTXO data (required for any input type to sign
// correctly).
func Build(ctx context.Context, sess *session.Session, seller state.Seller) (*psbt.Packet, error) {
	prevTx, prevOut, err := fetchPrevOutput(ctx, sess, seller)
	if err != nil {
		return nil, err
	}

	isTaproot := txscript.IsPayToTaproot(prevOut.PkScript)
	isSegwit := isTaproot ||
		txscript.IsPayToWitnessPubKeyHash(prevOut.PkScript) ||
		txscript.IsPayToWitnessScriptHash(prevOut.PkScript)

	if isTaproot && seller.TapInternalKey == nil {
		return nil, swaperr.Wrap(swaperr.KindInvalidArgument, "listing.Build",
			"taproot listing requires an internal key", ErrMissingTapInternalKey)
	}

	payoutScript, err := sess.Chain.PayToAddrScript(seller.ReceiveAddress)
	if err != nil {
		return nil, swaperr.Wrap(swaperr.KindInvalidArgument, "listing.Build",
			"resolve seller receive address", err)
	}

	payout := SellerPayout(seller.Price, seller.MakerFeeBP, seller.OrdItem.OutputValue)

	unsignedTx := wire.NewMsgTx(2)
	unsignedTx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{
			Hash:  seller.OrdItem.Output.Txid,
			Index: seller.OrdItem.Output.Vout,
		},
		Sequence: wire.MaxTxInSequenceNum,
	})
	unsignedTx.AddTxOut(&wire.TxOut{
		Value:    int64(payout),
		PkScript: payoutScript,
	})

	packet, err := psbt.NewFromUnsignedTx(unsignedTx)
	if err != nil {
		return nil, swaperr.Wrap(swaperr.KindProtocolError, "listing.Build",
			"build psbt skeleton", err)
	}

	in := &packet.Inputs[0]

	if isTaproot {
		in.NonWitnessUtxo = prevTx
	} else {
		// Non-witness UTXO must be the legacy serialization; some nodes
		// return segwit-serialized transactions even for legacy inputs,
		// so witnesses are stripped before attaching (spec.md §9).
		in.NonWitnessUtxo = rawtx.StripWitnesses(prevTx)
	}

	if isSegwit {
		in.WitnessUtxo = &wire.TxOut{
			Value:    prevOut.Value,
			PkScript: prevOut.PkScript,
		}
	}

	if isTaproot {
		in.TaprootInternalKey = xOnly(seller.TapInternalKey)
	}

	in.SighashType = SellerSighashType

	log.Debugf("built seller listing psbt for %s: payout=%d taproot=%v",
		seller.OrdItem.Output, payout, isTaproot)

	return packet, nil
}

// fetchPrevOutput retrieves the raw transaction that created
// seller.OrdItem.Output and returns both the full transaction (for
// non-witness UTXO attachment) and the specific spent output.
func fetchPrevOutput(ctx context.Context, sess *session.Session, seller state.Seller) (*wire.MsgTx, *wire.TxOut, error) {
	tx, err := rawtx.Fetch(ctx, sess.Providers.RPC, seller.OrdItem.Output.Txid)
	if err != nil {
		return nil, nil, swaperr.Wrap(swaperr.KindProviderError, "listing.Build",
			"fetch inscription parent transaction", err)
	}

	vout := seller.OrdItem.Output.Vout
	if int(vout) >= len(tx.TxOut) {
		return nil, nil, swaperr.New(swaperr.KindInvalidArgument, "listing.Build",
			fmt.Sprintf("output index %d out of range for parent tx", vout))
	}

	return tx, tx.TxOut[vout], nil
}

// xOnly returns the 32-byte x-only encoding of a public key.
func xOnly(pub *btcec.PublicKey) []byte {
	return pub.SerializeCompressed()[1:]
}
