// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package purchase implements component C4, the buyer half of the
// protocol: the 2-Dummy UTXO layout of spec.md §4.4, with a placeholder
// input slot at index 2 that the swap package later fills with the
// seller's signed listing input.
package purchase

import (
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btclog"

	"github.com/ordswap/engine/feemodel"
	"github.com/ordswap/engine/internal/rawtx"
	"github.com/ordswap/engine/listing"
	"github.com/ordswap/engine/providers"
	"github.com/ordswap/engine/session"
	"github.com/ordswap/engine/state"
	"github.com/ordswap/engine/swaperr"
	"github.com/ordswap/engine/utxoset"
)

// Fixed output indices from spec.md §4.4. If the platform-fee output is
// suppressed, PlatformFeeOutputIndex no longer denotes a real output;
// see the design-notes off-by-one warning this constant exists to name.
const (
	PadOutputIndex          = 0
	TokenReceiveOutputIndex = 1
	SellerPayoutOutputIndex = 2
	PlatformFeeOutputIndex  = 3

	// SellerInputIndex is the placeholder slot the Combiner splices the
	// seller's signed input into.
	SellerInputIndex = 2
)

var (
	// ErrUnsupportedAddressType is returned when a buyer or payment
	// address does not classify as one of the four supported input
	// shapes.
	ErrUnsupportedAddressType = errors.New("purchase: unsupported address type")

	// ErrMissingPaymentPubKey is returned when the buyer's payment
	// address is P2SH but no payment pubkey was supplied to synthesize
	// the redeem script.
	ErrMissingPaymentPubKey = errors.New("purchase: payment address is P2SH but no payment pubkey was supplied")
)

// log is the package logger, following the teacher's UseLogger pattern
// (see bwtest/wallet_logging.go's use of wallet.UseLogger).
var log = btclog.Disabled

// UseLogger sets the package-wide logger.
func UseLogger(logger btclog.Logger) {
	log = logger
}

// outputBudgetVouts is the maximum number of outputs the transaction
// can end up with (pad, token receive, seller payout, platform fee, two
// new dummies, change), used to size the fee estimate that drives
// payment-UTXO selection before the final output list — which may
// suppress the fee or change outputs — is known.
const outputBudgetVouts = 7

// Build assembles the unsigned buyer half-PSBT for listing, selecting
// two dummy UTXOs and enough payment UTXOs to cover price plus fees,
// and leaving input index 2 as an empty placeholder for the seller's
// signed input.
func Build(ctx context.Context, sess *session.Session, l *state.Listing) (*psbt.Packet, error) {
	if l.Buyer == nil {
		return nil, swaperr.New(swaperr.KindInvalidArgument, "purchase.Build",
			"listing has no buyer attached")
	}

	buyer := l.Buyer
	seller := l.Seller

	classifier := utxoset.New(sess.Providers.Item, sess.Providers.RPC)

	candidates, err := sess.Providers.UTXO.GetAddressUTXOs(ctx, buyer.PaymentAddress)
	if err != nil {
		return nil, swaperr.Wrap(swaperr.KindProviderError, "purchase.Build",
			"fetch buyer utxos", err)
	}

	dummies, err := classifier.SelectDummyUTXOs(ctx, sess.Config, candidates)
	if err != nil {
		return nil, swaperr.Wrap(swaperr.KindInsufficientFunds, "purchase.Build",
			"select dummy utxos", err)
	}

	buyer.DummyUTXOs = dummies

	payout := listing.SellerPayout(seller.Price, seller.MakerFeeBP, seller.OrdItem.OutputValue)
	platformFee := marketplaceFee(seller.Price, seller.MakerFeeBP, buyer.TakerFeeBP)

	// base vins: the two dummies plus the seller placeholder slot.
	const baseVins = 3

	paymentCandidates := excludeOutpoints(candidates, dummies[0].Outpoint, dummies[1].Outpoint)

	paymentUTXOs, err := classifier.SelectPaymentUTXOs(
		ctx, sess.Config, sess.Providers.Fee, paymentCandidates,
		seller.Price, baseVins, outputBudgetVouts, buyer.FeeRateTier,
	)
	if err != nil {
		return nil, err
	}

	buyer.PaymentUTXOs = paymentUTXOs

	addrType := sess.Chain.ClassifyAddress(buyer.PaymentAddress)

	inputKind, err := InputKindForAddressType(addrType, buyer.PaymentPubKey, nil)
	if err != nil {
		return nil, swaperr.Wrap(swaperr.KindInvalidArgument, "purchase.Build",
			"classify buyer payment address", err)
	}

	padScript, err := sess.Chain.PayToAddrScript(buyer.PaymentAddress)
	if err != nil {
		return nil, swaperr.Wrap(swaperr.KindInvalidArgument, "purchase.Build",
			"resolve buyer payment address", err)
	}

	receiveScript, err := sess.Chain.PayToAddrScript(buyer.TokenReceiveAddress)
	if err != nil {
		return nil, swaperr.Wrap(swaperr.KindInvalidArgument, "purchase.Build",
			"resolve buyer token receive address", err)
	}

	sellerScript, err := sess.Chain.PayToAddrScript(seller.ReceiveAddress)
	if err != nil {
		return nil, swaperr.Wrap(swaperr.KindInvalidArgument, "purchase.Build",
			"resolve seller receive address", err)
	}

	unsignedTx := wire.NewMsgTx(2)

	addPlaceholderInputs(unsignedTx, dummies, seller.OrdItem.Output, paymentUTXOs)

	offset := seller.OrdItem.Location.Offset
	padValue := dummies[0].Value + dummies[1].Value + btcutil.Amount(offset)

	unsignedTx.AddTxOut(&wire.TxOut{Value: int64(padValue), PkScript: padScript})
	unsignedTx.AddTxOut(&wire.TxOut{Value: int64(sess.Config.OrdinalsPostage), PkScript: receiveScript})
	unsignedTx.AddTxOut(&wire.TxOut{Value: int64(payout), PkScript: sellerScript})

	var feeScript []byte
	if sess.Config.PlatformFeeAddress != "" {
		feeScript, err = sess.Chain.PayToAddrScript(sess.Config.PlatformFeeAddress)
		if err != nil {
			return nil, swaperr.Wrap(swaperr.KindInvalidArgument, "purchase.Build",
				"resolve platform fee address", err)
		}
	}

	includeFee := sess.Config.PlatformFeeAddress != "" && !sess.Chain.IsDust(platformFee, feeScript)
	if includeFee {
		unsignedTx.AddTxOut(&wire.TxOut{Value: int64(platformFee), PkScript: feeScript})
	}

	unsignedTx.AddTxOut(&wire.TxOut{Value: int64(sess.Config.DummyValue), PkScript: padScript})
	unsignedTx.AddTxOut(&wire.TxOut{Value: int64(sess.Config.DummyValue), PkScript: padScript})

	rate, err := feemodel.ResolveRate(ctx, sess.Providers.Fee, buyer.FeeRateTier)
	if err != nil {
		return nil, swaperr.Wrap(swaperr.KindProviderError, "purchase.Build",
			"resolve fee rate", err)
	}

	nInputs := len(unsignedTx.TxIn)
	nOutputsSoFar := len(unsignedTx.TxOut)
	fee := feemodel.EstimateFee(nInputs, nOutputsSoFar+1, rate) // +1 budgets for a change output

	// The seller's input at index 2 also funds the outputs (the offset
	// pad and the postage both come out of it).
	totalIn := dummies[0].Value + dummies[1].Value + seller.OrdItem.OutputValue
	for _, u := range paymentUTXOs {
		totalIn += u.Value
	}

	totalOutSoFar := btcutil.Amount(0)
	for _, out := range unsignedTx.TxOut {
		totalOutSoFar += btcutil.Amount(out.Value)
	}

	change := totalIn - totalOutSoFar - fee
	if change < 0 {
		return nil, swaperr.New(swaperr.KindInsufficientFunds, "purchase.Build",
			fmt.Sprintf("selected utxos cover outputs but not fee: short by %d sats", -change))
	}

	if !sess.Chain.IsDust(change, padScript) {
		unsignedTx.AddTxOut(&wire.TxOut{Value: int64(change), PkScript: padScript})
	}

	packet, err := psbt.NewFromUnsignedTx(unsignedTx)
	if err != nil {
		return nil, swaperr.Wrap(swaperr.KindProtocolError, "purchase.Build",
			"build psbt skeleton", err)
	}

	if err := decorateInputs(ctx, sess, packet, inputKind, dummies, paymentUTXOs); err != nil {
		return nil, err
	}

	buyer.UnsignedBuyingPSBT = packet

	log.Debugf("built buyer purchase psbt: %d payment utxos, fee=%d, change=%d",
		len(paymentUTXOs), fee, change)

	return packet, nil
}

// marketplaceFee computes floor(price*(makerFeeBP+takerFeeBP)/10000),
// the platform-fee output value of spec.md §4.4.
func marketplaceFee(price btcutil.Amount, makerFeeBP, takerFeeBP uint16) btcutil.Amount {
	bp := int64(makerFeeBP) + int64(takerFeeBP)

	return btcutil.Amount(int64(price) * bp / 10000)
}

// excludeOutpoints returns the subset of candidates whose outpoint is
// none of exclude, preserving order. The two already-selected dummy
// inputs must never also be eligible as payment inputs, or the buyer
// half-transaction would spend the same outpoint twice.
func excludeOutpoints(candidates []providers.AddressTxsUtxo, exclude ...providers.Outpoint) []providers.AddressTxsUtxo {
	skip := make(map[providers.Outpoint]struct{}, len(exclude))
	for _, o := range exclude {
		skip[o] = struct{}{}
	}

	out := make([]providers.AddressTxsUtxo, 0, len(candidates))

	for _, c := range candidates {
		if _, ok := skip[c.Outpoint]; ok {
			continue
		}

		out = append(out, c)
	}

	return out
}

// addPlaceholderInputs appends inputs 0,1 (dummies), 2 (empty seller
// placeholder), and 3..k (payment utxos), matching the fixed layout of
// spec.md §4.4 exactly.
func addPlaceholderInputs(tx *wire.MsgTx, dummies [2]providers.AddressTxsUtxo, sellerOutpoint providers.Outpoint, payment []providers.AddressTxsUtxo) {
	for _, d := range dummies {
		tx.AddTxIn(&wire.TxIn{
			PreviousOutPoint: wire.OutPoint{Hash: d.Outpoint.Txid, Index: d.Outpoint.Vout},
			Sequence:         wire.MaxTxInSequenceNum,
		})
	}

	// The seller's real outpoint is known ahead of time (it is public,
	// published as part of the listing), so the placeholder input at
	// index 2 already points at the right previous output; only its
	// signature and PSBT input metadata are missing until swap.Merge
	// splices them in.
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Hash: sellerOutpoint.Txid, Index: sellerOutpoint.Vout},
		Sequence:         wire.MaxTxInSequenceNum,
	})

	for _, p := range payment {
		tx.AddTxIn(&wire.TxIn{
			PreviousOutPoint: wire.OutPoint{Hash: p.Outpoint.Txid, Index: p.Outpoint.Vout},
			Sequence:         wire.MaxTxInSequenceNum,
		})
	}
}

// decorateInputs fills in the PSBT input metadata for every buyer input
// except the seller placeholder at SellerInputIndex, which the swap
// package fills in later.
func decorateInputs(ctx context.Context, sess *session.Session, packet *psbt.Packet, kind InputKind, dummies [2]providers.AddressTxsUtxo, payment []providers.AddressTxsUtxo) error {
	buyerInputs := make([]providers.AddressTxsUtxo, 0, 2+len(payment))
	buyerInputs = append(buyerInputs, dummies[0], dummies[1])
	buyerInputs = append(buyerInputs, payment...)

	psbtIdx := 0

	for _, u := range buyerInputs {
		if psbtIdx == SellerInputIndex {
			psbtIdx++
		}

		tx, err := rawtx.Fetch(ctx, sess.Providers.RPC, u.Outpoint.Txid)
		if err != nil {
			return swaperr.Wrap(swaperr.KindProviderError, "purchase.Build",
				"fetch buyer input transaction", err)
		}

		if int(u.Outpoint.Vout) >= len(tx.TxOut) {
			return swaperr.New(swaperr.KindInvalidArgument, "purchase.Build",
				fmt.Sprintf("output index %d out of range for input tx", u.Outpoint.Vout))
		}

		prevOut := tx.TxOut[u.Outpoint.Vout]

		kind.Decorate(&packet.Inputs[psbtIdx], tx, prevOut)

		psbtIdx++
	}

	return nil
}

