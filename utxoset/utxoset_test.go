// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package utxoset_test

import (
	"context"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/ordswap/engine/config"
	"github.com/ordswap/engine/internal/swaptest"
	"github.com/ordswap/engine/providers"
	"github.com/ordswap/engine/swaperr"
	"github.com/ordswap/engine/utxoset"
)

const addr = "addr1"

func TestContainsInscriptionConfirmedDirectHit(t *testing.T) {
	t.Parallel()

	chain := swaptest.New()
	out := chain.Fund(addr, swaptest.P2WPKHScript(0x01), 10_000, true)
	chain.MarkInscribed(out, &providers.Item{ID: "tok-1"})

	c := utxoset.New(chain, chain)

	tainted, err := c.ContainsInscription(context.Background(), providers.AddressTxsUtxo{
		Outpoint: out, Value: 10_000, Confirmed: true,
	})
	require.NoError(t, err)
	require.True(t, tainted)
}

func TestContainsInscriptionConfirmedClean(t *testing.T) {
	t.Parallel()

	chain := swaptest.New()
	out := chain.Fund(addr, swaptest.P2WPKHScript(0x01), 10_000, true)

	c := utxoset.New(chain, chain)

	tainted, err := c.ContainsInscription(context.Background(), providers.AddressTxsUtxo{
		Outpoint: out, Value: 10_000, Confirmed: true,
	})
	require.NoError(t, err)
	require.False(t, tainted)
}

// TestContainsInscriptionIndexerErrorFailsClosed exercises spec.md
// §4.2's fail-closed guarantee: an indexer error on a confirmed UTXO
// must be treated as tainted, not surfaced as an error.
func TestContainsInscriptionIndexerErrorFailsClosed(t *testing.T) {
	t.Parallel()

	chain := swaptest.New()
	chain.ItemErr = errors.New("indexer unavailable")
	out := chain.Fund(addr, swaptest.P2WPKHScript(0x01), 10_000, true)

	c := utxoset.New(chain, chain)

	tainted, err := c.ContainsInscription(context.Background(), providers.AddressTxsUtxo{
		Outpoint: out, Value: 10_000, Confirmed: true,
	})
	require.NoError(t, err)
	require.True(t, tainted)
}

// TestContainsInscriptionUnconfirmedTaintedParent exercises the
// ancestry walk: an unconfirmed UTXO whose parent output is itself
// inscription-bearing is tainted, even though the UTXO's own outpoint
// was never indexed.
func TestContainsInscriptionUnconfirmedTaintedParent(t *testing.T) {
	t.Parallel()

	chain := swaptest.New()

	parentOut := chain.Fund(addr, swaptest.P2WPKHScript(0x01), 10_000, true)
	chain.MarkInscribed(parentOut, &providers.Item{ID: "tok-1"})

	child := wire.NewMsgTx(2)
	child.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.OutPoint{Hash: parentOut.Txid, Index: parentOut.Vout}})
	child.AddTxOut(&wire.TxOut{Value: 9_500, PkScript: swaptest.P2WPKHScript(0x02)})
	childHash := chain.AddTx(child)

	c := utxoset.New(chain, chain)

	tainted, err := c.ContainsInscription(context.Background(), providers.AddressTxsUtxo{
		Outpoint:  providers.Outpoint{Txid: childHash, Vout: 0},
		Value:     9_500,
		Confirmed: false,
	})
	require.NoError(t, err)
	require.True(t, tainted)
}

func TestSelectDummyUTXOsPicksFirstTwoInRange(t *testing.T) {
	t.Parallel()

	chain := swaptest.New()
	cfg := config.Default()

	tooSmall := chain.Fund(addr, swaptest.P2WPKHScript(0x01), 100, true)
	dummy1 := chain.Fund(addr, swaptest.P2WPKHScript(0x02), 600, true)
	dummy2 := chain.Fund(addr, swaptest.P2WPKHScript(0x03), 700, true)
	tooLarge := chain.Fund(addr, swaptest.P2WPKHScript(0x04), 50_000, true)

	candidates := []providers.AddressTxsUtxo{
		{Outpoint: tooSmall, Value: 100, Confirmed: true},
		{Outpoint: dummy1, Value: 600, Confirmed: true},
		{Outpoint: dummy2, Value: 700, Confirmed: true},
		{Outpoint: tooLarge, Value: 50_000, Confirmed: true},
	}

	c := utxoset.New(chain, chain)

	dummies, err := c.SelectDummyUTXOs(context.Background(), cfg, candidates)
	require.NoError(t, err)
	require.Equal(t, dummy1, dummies[0].Outpoint)
	require.Equal(t, dummy2, dummies[1].Outpoint)
}

func TestSelectDummyUTXOsSkipsTainted(t *testing.T) {
	t.Parallel()

	chain := swaptest.New()
	cfg := config.Default()

	tainted := chain.Fund(addr, swaptest.P2WPKHScript(0x01), 600, true)
	chain.MarkInscribed(tainted, &providers.Item{ID: "tok-1"})
	clean := chain.Fund(addr, swaptest.P2WPKHScript(0x02), 650, true)

	candidates := []providers.AddressTxsUtxo{
		{Outpoint: tainted, Value: 600, Confirmed: true},
		{Outpoint: clean, Value: 650, Confirmed: true},
	}

	c := utxoset.New(chain, chain)

	_, err := c.SelectDummyUTXOs(context.Background(), cfg, candidates)
	require.ErrorIs(t, err, utxoset.ErrTooFewCandidates)
}

func TestSelectPaymentUTXOsAccumulatesUntilCovered(t *testing.T) {
	t.Parallel()

	chain := swaptest.New()
	cfg := config.Default()

	small := chain.Fund(addr, swaptest.P2WPKHScript(0x01), 40_000, true)
	large := chain.Fund(addr, swaptest.P2WPKHScript(0x02), 200_000, true)

	candidates := []providers.AddressTxsUtxo{
		{Outpoint: small, Value: 40_000, Confirmed: true},
		{Outpoint: large, Value: 200_000, Confirmed: true},
	}

	c := utxoset.New(chain, chain)

	selected, err := c.SelectPaymentUTXOs(
		context.Background(), cfg, chain, candidates,
		btcutil.Amount(100_000), 3, 7, config.TierHour,
	)
	require.NoError(t, err)
	require.Len(t, selected, 1)
	require.Equal(t, large, selected[0].Outpoint)
}

func TestSelectPaymentUTXOsInsufficientFunds(t *testing.T) {
	t.Parallel()

	chain := swaptest.New()
	cfg := config.Default()

	only := chain.Fund(addr, swaptest.P2WPKHScript(0x01), 1_000, true)

	candidates := []providers.AddressTxsUtxo{
		{Outpoint: only, Value: 1_000, Confirmed: true},
	}

	c := utxoset.New(chain, chain)

	_, err := c.SelectPaymentUTXOs(
		context.Background(), cfg, chain, candidates,
		btcutil.Amount(100_000), 3, 7, config.TierHour,
	)
	require.True(t, swaperr.Is(err, swaperr.KindInsufficientFunds))
}

func TestSelectPaymentUTXOsExcludesDummyValuedCoins(t *testing.T) {
	t.Parallel()

	chain := swaptest.New()
	cfg := config.Default()

	dummySized := chain.Fund(addr, swaptest.P2WPKHScript(0x01), cfg.DummyValue, true)
	payment := chain.Fund(addr, swaptest.P2WPKHScript(0x02), 200_000, true)

	candidates := []providers.AddressTxsUtxo{
		{Outpoint: dummySized, Value: cfg.DummyValue, Confirmed: true},
		{Outpoint: payment, Value: 200_000, Confirmed: true},
	}

	c := utxoset.New(chain, chain)

	selected, err := c.SelectPaymentUTXOs(
		context.Background(), cfg, chain, candidates,
		btcutil.Amount(100_000), 3, 7, config.TierHour,
	)
	require.NoError(t, err)
	require.Len(t, selected, 1)
	require.Equal(t, payment, selected[0].Outpoint)
}
