// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package listing_test

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"

	"github.com/ordswap/engine/chainprofile"
	"github.com/ordswap/engine/config"
	"github.com/ordswap/engine/internal/swaptest"
	"github.com/ordswap/engine/listing"
	"github.com/ordswap/engine/providers"
	"github.com/ordswap/engine/session"
	"github.com/ordswap/engine/state"
)

func TestSellerPayoutAppliesMakerFeeAndReimbursesPostage(t *testing.T) {
	t.Parallel()

	// price=100000, makerFeeBP=100 (1%) -> fee=1000, +outputValue=10000
	// -> 109000, matching scenario S1 of the protocol.
	payout := listing.SellerPayout(100_000, 100, 10_000)
	require.EqualValues(t, 109_000, payout)
}

func TestSellerPayoutZeroFee(t *testing.T) {
	t.Parallel()

	payout := listing.SellerPayout(100_000_000, 0, 10_000)
	require.EqualValues(t, 100_010_000, payout)
}

func TestBuildProducesSingleInputSingleOutputSighashSingleAnyoneCanPay(t *testing.T) {
	t.Parallel()

	chain := swaptest.New()
	sellerScript := swaptest.P2WPKHScript(0x01)
	sellerAddr, err := chainprofile.BitcoinMainnet.ExtractAddress(sellerScript)
	require.NoError(t, err)

	inscriptionOut := chain.Fund(sellerAddr, sellerScript, 10_000, true)
	item := providers.Item{
		ID:          "tok-1",
		Owner:       sellerAddr,
		Location:    providers.InscriptionLocation{Outpoint: inscriptionOut},
		Output:      inscriptionOut,
		OutputValue: 10_000,
	}
	chain.MarkInscribed(inscriptionOut, &item)

	sess := session.New(chainprofile.BitcoinMainnet, chain.Bundle(), config.Default())

	seller := state.Seller{
		MakerFeeBP:     100,
		OrdAddress:     sellerAddr,
		Price:          100_000,
		OrdItem:        item,
		ReceiveAddress: sellerAddr,
	}

	packet, err := listing.Build(context.Background(), sess, seller)
	require.NoError(t, err)

	require.Len(t, packet.UnsignedTx.TxIn, 1)
	require.Len(t, packet.UnsignedTx.TxOut, 1)
	require.EqualValues(t, 109_000, packet.UnsignedTx.TxOut[0].Value)
	require.Equal(t, listing.SellerSighashType, packet.Inputs[0].SighashType)
	require.Equal(t, txscript.SigHashSingle|txscript.SigHashAnyOneCanPay, packet.Inputs[0].SighashType)
	require.NotNil(t, packet.Inputs[0].WitnessUtxo)
}

func TestBuildTaprootRequiresInternalKey(t *testing.T) {
	t.Parallel()

	chain := swaptest.New()

	// A witness v1 program built directly, since chainprofile has no
	// taproot key-generation helper of its own.
	taprootScript := append([]byte{0x51, 0x20}, make([]byte, 32)...)
	sellerAddr, err := chainprofile.BitcoinMainnet.ExtractAddress(taprootScript)
	require.NoError(t, err)

	inscriptionOut := chain.Fund(sellerAddr, taprootScript, 10_000, true)
	item := providers.Item{
		ID:          "tok-2",
		Owner:       sellerAddr,
		Output:      inscriptionOut,
		OutputValue: 10_000,
	}

	sess := session.New(chainprofile.BitcoinMainnet, chain.Bundle(), config.Default())

	seller := state.Seller{
		Price:          100_000,
		OrdItem:        item,
		ReceiveAddress: sellerAddr,
	}

	_, err = listing.Build(context.Background(), sess, seller)
	require.ErrorIs(t, err, listing.ErrMissingTapInternalKey)
}
