// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/ordswap/engine/chainprofile"
	"github.com/ordswap/engine/config"
	"github.com/ordswap/engine/providers"
)

// memoryChain is a tiny, entirely in-memory stand-in for a node plus
// its indexers, just complete enough to drive listing.Build and
// purchase.Build against fixture data. It exists purely to give this
// demo binary something to wire against without requiring a live
// bitcoind, a mempool.space instance, and an ordinals indexer; it is
// not a substitute for any of the real providers.RPCProvider /
// UTXOProvider / ItemProvider implementations a production deployment
// needs.
type memoryChain struct {
	txs   map[chainhash.Hash]*wire.MsgTx
	items map[providers.Outpoint]*providers.Item
	utxos map[string][]providers.AddressTxsUtxo
}

func newMemoryChain() *memoryChain {
	return &memoryChain{
		txs:   make(map[chainhash.Hash]*wire.MsgTx),
		items: make(map[providers.Outpoint]*providers.Item),
		utxos: make(map[string][]providers.AddressTxsUtxo),
	}
}

// addTx registers tx under its own hash and returns that hash.
func (m *memoryChain) addTx(tx *wire.MsgTx) chainhash.Hash {
	h := tx.TxHash()
	m.txs[h] = tx

	return h
}

// fundAddress mints a single-output funding transaction paying value to
// script, registers it, and records the resulting UTXO for addr.
func (m *memoryChain) fundAddress(addr string, script []byte, value btcutil.Amount, confirmed bool) providers.Outpoint {
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.OutPoint{Index: 0xffffffff}})
	tx.AddTxOut(&wire.TxOut{Value: int64(value), PkScript: script})

	h := m.addTx(tx)
	op := providers.Outpoint{Txid: h, Vout: 0}

	m.utxos[addr] = append(m.utxos[addr], providers.AddressTxsUtxo{
		Outpoint:  op,
		Value:     value,
		Confirmed: confirmed,
	})

	return op
}

// --- providers.RPCProvider ---

func (m *memoryChain) GetRawTransaction(_ context.Context, txid chainhash.Hash) (string, error) {
	tx, ok := m.txs[txid]
	if !ok {
		return "", fmt.Errorf("unknown demo tx %s", txid)
	}

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return "", err
	}

	return hex.EncodeToString(buf.Bytes()), nil
}

func (m *memoryChain) GetRawTransactionVerbose(_ context.Context, txid chainhash.Hash) (*providers.VerboseTx, error) {
	tx, ok := m.txs[txid]
	if !ok {
		return nil, fmt.Errorf("unknown demo tx %s", txid)
	}

	vt := &providers.VerboseTx{Txid: txid, Confirmations: 1}
	for _, in := range tx.TxIn {
		vt.Vin = append(vt.Vin, providers.VerboseVin{
			Txid: in.PreviousOutPoint.Hash,
			Vout: in.PreviousOutPoint.Index,
		})
	}

	return vt, nil
}

func (m *memoryChain) AnalyzePsbt(context.Context, string) (*providers.AnalyzePsbtResult, error) {
	return nil, fmt.Errorf("demo chain does not implement AnalyzePsbt")
}

func (m *memoryChain) FinalizePsbt(context.Context, string) (*providers.FinalizePsbtResult, error) {
	return nil, fmt.Errorf("demo chain does not implement FinalizePsbt")
}

func (m *memoryChain) TestMempoolAccept(context.Context, []string) ([]providers.MempoolAcceptResult, error) {
	return nil, fmt.Errorf("demo chain does not implement TestMempoolAccept")
}

func (m *memoryChain) SendRawTransaction(context.Context, string) (chainhash.Hash, error) {
	return chainhash.Hash{}, fmt.Errorf("demo chain does not broadcast: this binary is illustrative only")
}

func (m *memoryChain) GetRawMempool(context.Context) ([]chainhash.Hash, error) {
	return nil, nil
}

// --- providers.FeeProvider ---

func (m *memoryChain) GetFee(_ context.Context, tier config.FeeTier) (btcutil.Amount, error) {
	rates := map[config.FeeTier]btcutil.Amount{
		config.TierFastest:  20,
		config.TierHalfHour: 10,
		config.TierHour:     5,
		config.TierMinimum:  1,
	}

	return rates[tier.Normalize()], nil
}

func (m *memoryChain) GetFeesRecommended(ctx context.Context) (map[config.FeeTier]btcutil.Amount, error) {
	out := make(map[config.FeeTier]btcutil.Amount)
	for _, tier := range []config.FeeTier{config.TierFastest, config.TierHalfHour, config.TierHour, config.TierMinimum} {
		v, _ := m.GetFee(ctx, tier)
		out[tier] = v
	}

	return out, nil
}

// --- providers.UTXOProvider ---

func (m *memoryChain) GetAddressUTXOs(_ context.Context, addr string) ([]providers.AddressTxsUtxo, error) {
	return m.utxos[addr], nil
}

// --- providers.ItemProvider ---

func (m *memoryChain) GetTokenByOutput(_ context.Context, out providers.Outpoint) (*providers.Item, error) {
	return m.items[out], nil
}

func (m *memoryChain) GetTokenByID(_ context.Context, id string) (*providers.Item, error) {
	for _, item := range m.items {
		if item.ID == id {
			return item, nil
		}
	}

	return nil, nil
}

// bundle adapts memoryChain to a providers.Bundle. There is no
// marketplace-fee provider: the demo passes maker/taker fees directly
// on the seller/buyer state instead, exercising the "nil
// MarketplaceFee means zero fee" fallback documented on
// providers.Bundle.MakerFeeBP.
func (m *memoryChain) bundle() providers.Bundle {
	return providers.Bundle{RPC: m, Fee: m, UTXO: m, Item: m}
}

// p2wpkhScript builds a minimal OP_0 <20-byte-hash> witness script for
// fixture addresses, avoiding a dependency on any one address's real
// encoding: the demo only needs distinct, classifiable scripts.
func p2wpkhScript(tag byte) []byte {
	hash := bytes.Repeat([]byte{tag}, 20)

	return append([]byte{0x00, 0x14}, hash...)
}

func mustAddress(chain *chainprofile.Profile, script []byte) string {
	addr, err := chain.ExtractAddress(script)
	if err != nil {
		panic(err)
	}

	return addr
}
