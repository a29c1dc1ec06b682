// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package swap_test

import (
	"context"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"

	"github.com/ordswap/engine/chainprofile"
	"github.com/ordswap/engine/config"
	"github.com/ordswap/engine/internal/swaptest"
	"github.com/ordswap/engine/listing"
	"github.com/ordswap/engine/providers"
	"github.com/ordswap/engine/purchase"
	"github.com/ordswap/engine/session"
	"github.com/ordswap/engine/state"
	"github.com/ordswap/engine/swap"
)

// buildAndSignListing builds a real seller half-PSBT and finalizes its
// single P2PKH input with a genuine SIGHASH_SINGLE|ANYONECANPAY
// signature, grounded on the teacher's own txscript.SignTxOutput call
// in wallet/deprecated.go, so tests can exercise script execution for
// real rather than stubbing FinalScriptSig with fixture bytes.
func buildAndSignListing(t *testing.T, sess *session.Session, seller state.Seller, prevScript []byte, priv *btcec.PrivateKey) *psbt.Packet {
	t.Helper()

	packet, err := listing.Build(context.Background(), sess, seller)
	require.NoError(t, err)

	getKey := txscript.KeyClosure(func(btcutil.Address) (*btcec.PrivateKey, bool, error) {
		return priv, true, nil
	})
	getScript := txscript.ScriptClosure(func(btcutil.Address) ([]byte, error) {
		return nil, errors.New("no redeem script")
	})

	sigScript, err := txscript.SignTxOutput(
		&chaincfg.MainNetParams, packet.UnsignedTx, 0, prevScript,
		listing.SellerSighashType, getKey, getScript, nil,
	)
	require.NoError(t, err)

	packet.Inputs[0].FinalScriptSig = sigScript

	return packet
}

// setupSignedSeller wires a fresh keypair, funds the P2PKH inscription
// output it controls, and returns everything a VerifySignedListing test
// needs.
func setupSignedSeller(t *testing.T, chain *swaptest.Chain, cfg *config.Config, price btcutil.Amount, makerFeeBP uint16) (*session.Session, *providers.Item, string, *psbt.Packet) {
	t.Helper()

	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	pkHash := btcutil.Hash160(priv.PubKey().SerializeCompressed())
	addr, err := btcutil.NewAddressPubKeyHash(pkHash, &chaincfg.MainNetParams)
	require.NoError(t, err)

	prevScript, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)

	sellerAddr, err := chainprofile.BitcoinMainnet.ExtractAddress(prevScript)
	require.NoError(t, err)

	inscriptionOut := chain.Fund(sellerAddr, prevScript, 10_000, true)
	item := providers.Item{ID: "tok-1", Owner: sellerAddr, Output: inscriptionOut, OutputValue: 10_000}
	chain.MarkInscribed(inscriptionOut, &item)

	sess := session.New(chainprofile.BitcoinMainnet, chain.Bundle(), cfg)

	seller := state.Seller{
		MakerFeeBP:     makerFeeBP,
		OrdAddress:     sellerAddr,
		Price:          price,
		OrdItem:        item,
		ReceiveAddress: sellerAddr,
	}

	packet := buildAndSignListing(t, sess, seller, prevScript, priv)

	return sess, &item, sellerAddr, packet
}

func TestVerifySignedListingLocalFallbackAcceptsValidSignature(t *testing.T) {
	t.Parallel()

	chain := swaptest.New()

	// swaptest's bundle has no marketplace-fee provider, so the verifier
	// prices the listing at a zero maker fee; the seller lists at zero
	// fee to match.
	sess, item, sellerAddr, packet := setupSignedSeller(t, chain, config.Default(), 100_000, 0)

	// Force the node's analyze_psbt RPC to fail so checkFinalized takes
	// the local script-execution fallback path.
	chain.AnalyzeErr = errors.New("node rpc unavailable")

	req := swap.VerifyRequest{
		SignedListingPSBT:    packet,
		TokenID:              item.ID,
		Price:                100_000,
		SellerReceiveAddress: sellerAddr,
	}

	result, err := swap.VerifySignedListing(context.Background(), sess, req)
	require.NoError(t, err)
	require.False(t, result.Delisted)
	require.Equal(t, item.ID, result.Item.ID)
}

func TestVerifySignedListingRejectsPriceMismatch(t *testing.T) {
	t.Parallel()

	chain := swaptest.New()
	sess, item, sellerAddr, packet := setupSignedSeller(t, chain, config.Default(), 100_000, 100)

	req := swap.VerifyRequest{
		SignedListingPSBT:    packet,
		TokenID:              item.ID,
		Price:                200_000, // the caller claims a different price than the seller signed
		SellerReceiveAddress: sellerAddr,
	}

	_, err := swap.VerifySignedListing(context.Background(), sess, req)
	require.ErrorIs(t, err, swap.ErrPriceMismatch)
}

func TestVerifySignedListingRejectsTokenIDMismatch(t *testing.T) {
	t.Parallel()

	chain := swaptest.New()
	sess, _, sellerAddr, packet := setupSignedSeller(t, chain, config.Default(), 100_000, 100)

	req := swap.VerifyRequest{
		SignedListingPSBT:    packet,
		TokenID:              "not-the-real-token",
		Price:                100_000,
		SellerReceiveAddress: sellerAddr,
	}

	_, err := swap.VerifySignedListing(context.Background(), sess, req)
	require.ErrorIs(t, err, swap.ErrTokenMismatch)
}

func TestVerifySignedListingDelistMagicPriceSkipsPriceAndAddressChecks(t *testing.T) {
	t.Parallel()

	chain := swaptest.New()
	cfg := config.Default()
	sess, item, _, packet := setupSignedSeller(t, chain, cfg, cfg.DelistMagicPrice, 0)

	req := swap.VerifyRequest{
		SignedListingPSBT:    packet,
		TokenID:              item.ID,
		Price:                cfg.DelistMagicPrice,
		SellerReceiveAddress: "any-address-does-not-matter",
	}

	result, err := swap.VerifySignedListing(context.Background(), sess, req)
	require.NoError(t, err)
	require.True(t, result.Delisted)
}

func TestMergeIsPureAndDeterministic(t *testing.T) {
	t.Parallel()

	chain := swaptest.New()

	sellerScript := swaptest.P2WPKHScript(0x01)
	sellerAddr, err := chainprofile.BitcoinMainnet.ExtractAddress(sellerScript)
	require.NoError(t, err)

	inscriptionOut := chain.Fund(sellerAddr, sellerScript, 10_000, true)
	item := providers.Item{ID: "tok-1", Owner: sellerAddr, Output: inscriptionOut, OutputValue: 10_000}
	chain.MarkInscribed(inscriptionOut, &item)

	cfg := config.Default()
	sess := session.New(chainprofile.BitcoinMainnet, chain.Bundle(), cfg)

	seller := state.Seller{
		MakerFeeBP:     100,
		OrdAddress:     sellerAddr,
		Price:          100_000,
		OrdItem:        item,
		ReceiveAddress: sellerAddr,
	}

	sellerPacket, err := listing.Build(context.Background(), sess, seller)
	require.NoError(t, err)

	buyerPaymentScript := swaptest.P2WPKHScript(0x02)
	buyerAddr, err := chainprofile.BitcoinMainnet.ExtractAddress(buyerPaymentScript)
	require.NoError(t, err)
	buyerReceiveAddr, err := chainprofile.BitcoinMainnet.ExtractAddress(swaptest.P2WPKHScript(0x03))
	require.NoError(t, err)

	chain.Fund(buyerAddr, buyerPaymentScript, cfg.DummyValue, true)
	chain.Fund(buyerAddr, buyerPaymentScript, cfg.DummyValue, true)
	chain.Fund(buyerAddr, buyerPaymentScript, seller.Price*2, true)

	l := state.NewListing(chainprofile.BitcoinMainnet, seller).WithBuyer(state.Buyer{
		TakerFeeBP:          200,
		PaymentAddress:      buyerAddr,
		TokenReceiveAddress: buyerReceiveAddr,
		FeeRateTier:         config.TierHour,
	})

	buyerPacket, err := purchase.Build(context.Background(), sess, l)
	require.NoError(t, err)

	buyerB64Before, err := buyerPacket.B64Encode()
	require.NoError(t, err)

	merged1, err := swap.Merge(sellerPacket, buyerPacket)
	require.NoError(t, err)

	merged2, err := swap.Merge(sellerPacket, buyerPacket)
	require.NoError(t, err)

	b64One, err := merged1.B64Encode()
	require.NoError(t, err)
	b64Two, err := merged2.B64Encode()
	require.NoError(t, err)

	require.Equal(t, b64One, b64Two)

	// The buyer's original packet must be untouched (Merge is pure),
	// while the merged packet differs from it at the placeholder slot.
	buyerB64After, err := buyerPacket.B64Encode()
	require.NoError(t, err)
	require.Equal(t, buyerB64Before, buyerB64After)
	require.NotEqual(t, b64One, buyerB64Before)

	require.Equal(t,
		sellerPacket.UnsignedTx.TxIn[0].PreviousOutPoint,
		merged1.UnsignedTx.TxIn[purchase.SellerInputIndex].PreviousOutPoint,
	)
}

func TestMergeRejectsMissingPlaceholderSlot(t *testing.T) {
	t.Parallel()

	chain := swaptest.New()

	sellerScript := swaptest.P2WPKHScript(0x01)
	sellerAddr, err := chainprofile.BitcoinMainnet.ExtractAddress(sellerScript)
	require.NoError(t, err)

	inscriptionOut := chain.Fund(sellerAddr, sellerScript, 10_000, true)
	item := providers.Item{ID: "tok-1", Owner: sellerAddr, Output: inscriptionOut, OutputValue: 10_000}
	chain.MarkInscribed(inscriptionOut, &item)

	sess := session.New(chainprofile.BitcoinMainnet, chain.Bundle(), config.Default())

	seller := state.Seller{
		OrdAddress:     sellerAddr,
		Price:          100_000,
		OrdItem:        item,
		ReceiveAddress: sellerAddr,
	}

	sellerPacket, err := listing.Build(context.Background(), sess, seller)
	require.NoError(t, err)

	// A buyer packet with too few inputs to have a placeholder slot at
	// purchase.SellerInputIndex.
	emptyBuyerTx, err := psbt.NewFromUnsignedTx(sellerPacket.UnsignedTx.Copy())
	require.NoError(t, err)

	_, err = swap.Merge(sellerPacket, emptyBuyerTx)
	require.ErrorIs(t, err, swap.ErrMissingPlaceholder)
}
