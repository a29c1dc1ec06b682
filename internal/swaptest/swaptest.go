// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package swaptest provides the shared, entirely in-memory provider
// fixtures every other package's test suite builds a Session against,
// so chain state, UTXOs, and inscription records don't get reinvented
// per package. It mirrors cmd/ordswap-demo's memoryChain but is built
// for table-driven tests: every field is exported and freely mutable
// between calls.
package swaptest

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/ordswap/engine/config"
	"github.com/ordswap/engine/providers"
)

// Chain is a fake providers.RPCProvider/FeeProvider/UTXOProvider/
// ItemProvider backed by plain maps.
type Chain struct {
	Txs   map[chainhash.Hash]*wire.MsgTx
	Items map[providers.Outpoint]*providers.Item
	Utxos map[string][]providers.AddressTxsUtxo
	Rates map[config.FeeTier]btcutil.Amount

	// AnalyzeErr, when non-nil, is returned by AnalyzePsbt in place of
	// AnalyzeResult, letting a test exercise swap's local-verification
	// fallback path.
	AnalyzeErr    error
	AnalyzeResult *providers.AnalyzePsbtResult

	// ItemErr, when non-nil, is returned by GetTokenByOutput for every
	// outpoint, exercising the fail-closed taint policy.
	ItemErr error
}

// New builds an empty Chain with the four canonical fee-oracle tiers
// populated at fixed rates (fastest=20, halfHour=10, hour=5, minimum=1
// sat/vbyte).
func New() *Chain {
	return &Chain{
		Txs:   make(map[chainhash.Hash]*wire.MsgTx),
		Items: make(map[providers.Outpoint]*providers.Item),
		Utxos: make(map[string][]providers.AddressTxsUtxo),
		Rates: map[config.FeeTier]btcutil.Amount{
			config.TierFastest:  20,
			config.TierHalfHour: 10,
			config.TierHour:     5,
			config.TierMinimum:  1,
		},
	}
}

// AddTx registers tx under its own hash and returns that hash.
func (c *Chain) AddTx(tx *wire.MsgTx) chainhash.Hash {
	h := tx.TxHash()
	c.Txs[h] = tx

	return h
}

// Fund mints a single-output funding transaction paying value to
// script, registers it, and records the resulting UTXO for addr.
func (c *Chain) Fund(addr string, script []byte, value btcutil.Amount, confirmed bool) providers.Outpoint {
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.OutPoint{Index: 0xffffffff}})
	tx.AddTxOut(&wire.TxOut{Value: int64(value), PkScript: script})

	h := c.AddTx(tx)
	op := providers.Outpoint{Txid: h, Vout: 0}

	c.Utxos[addr] = append(c.Utxos[addr], providers.AddressTxsUtxo{
		Outpoint:  op,
		Value:     value,
		Confirmed: confirmed,
	})

	return op
}

// MarkInscribed registers item as the inscription living at out,
// keyed the way GetTokenByOutput expects.
func (c *Chain) MarkInscribed(out providers.Outpoint, item *providers.Item) {
	c.Items[out] = item
}

// --- providers.RPCProvider ---

func (c *Chain) GetRawTransaction(_ context.Context, txid chainhash.Hash) (string, error) {
	tx, ok := c.Txs[txid]
	if !ok {
		return "", fmt.Errorf("swaptest: unknown tx %s", txid)
	}

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return "", err
	}

	return hex.EncodeToString(buf.Bytes()), nil
}

func (c *Chain) GetRawTransactionVerbose(_ context.Context, txid chainhash.Hash) (*providers.VerboseTx, error) {
	tx, ok := c.Txs[txid]
	if !ok {
		return nil, fmt.Errorf("swaptest: unknown tx %s", txid)
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

func (c *Chain) AnalyzePsbt(_ context.Context, _ string) (*providers.AnalyzePsbtResult, error) {
	if c.AnalyzeErr != nil {
		return nil, c.AnalyzeErr
	}

	if c.AnalyzeResult != nil {
		return c.AnalyzeResult, nil
	}

	return &providers.AnalyzePsbtResult{
		Inputs: []providers.AnalyzeInput{{HasUTXO: true, IsFinal: true}},
	}, nil
}

func (c *Chain) FinalizePsbt(context.Context, string) (*providers.FinalizePsbtResult, error) {
	return nil, fmt.Errorf("swaptest: FinalizePsbt not implemented")
}

func (c *Chain) TestMempoolAccept(context.Context, []string) ([]providers.MempoolAcceptResult, error) {
	return nil, fmt.Errorf("swaptest: TestMempoolAccept not implemented")
}

func (c *Chain) SendRawTransaction(context.Context, string) (chainhash.Hash, error) {
	return chainhash.Hash{}, fmt.Errorf("swaptest: SendRawTransaction not implemented")
}

func (c *Chain) GetRawMempool(context.Context) ([]chainhash.Hash, error) {
	return nil, nil
}

// --- providers.FeeProvider ---

func (c *Chain) GetFee(_ context.Context, tier config.FeeTier) (btcutil.Amount, error) {
	return c.Rates[tier.Normalize()], nil
}

func (c *Chain) GetFeesRecommended(ctx context.Context) (map[config.FeeTier]btcutil.Amount, error) {
	out := make(map[config.FeeTier]btcutil.Amount, len(c.Rates))
	for tier, rate := range c.Rates {
		out[tier] = rate
	}

	return out, nil
}

// --- providers.UTXOProvider ---

func (c *Chain) GetAddressUTXOs(_ context.Context, addr string) ([]providers.AddressTxsUtxo, error) {
	return c.Utxos[addr], nil
}

// --- providers.ItemProvider ---

func (c *Chain) GetTokenByOutput(_ context.Context, out providers.Outpoint) (*providers.Item, error) {
	if c.ItemErr != nil {
		return nil, c.ItemErr
	}

	return c.Items[out], nil
}

func (c *Chain) GetTokenByID(_ context.Context, id string) (*providers.Item, error) {
	if c.ItemErr != nil {
		return nil, c.ItemErr
	}

	for _, item := range c.Items {
		if item.ID == id {
			return item, nil
		}
	}

	return nil, nil
}

// Bundle adapts Chain to a providers.Bundle with no marketplace-fee
// provider, exercising the "nil MarketplaceFee means zero fee"
// fallback documented on providers.Bundle.MakerFeeBP/TakerFeeBP.
func (c *Chain) Bundle() providers.Bundle {
	return providers.Bundle{RPC: c, Fee: c, UTXO: c, Item: c}
}

// P2WPKHScript builds a minimal OP_0 <20-byte-hash> witness script from
// a single repeated tag byte, giving tests distinct, classifiable
// scripts without depending on any one address encoding.
func P2WPKHScript(tag byte) []byte {
	hash := bytes.Repeat([]byte{tag}, 20)

	return append([]byte{0x00, 0x14}, hash...)
}

// P2PKHHash160 returns a 20-byte hash built from a single repeated tag
// byte, suitable for a base58check P2PKH address encoding.
func P2PKHHash160(tag byte) [20]byte {
	var hash [20]byte
	for i := range hash {
		hash[i] = tag
	}

	return hash
}
