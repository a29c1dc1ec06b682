// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package providers declares the external collaborator interfaces
// enumerated in §6 of the protocol spec: the node RPC endpoint, the fee
// oracle, the UTXO/mempool indexer, the inscription indexer, and the
// optional marketplace-fee lookup. The engine never implements these
// itself — it only consumes them, mirroring how
// _examples/other_examples/decred-dcrdex__btc.go's btcNode describes a
// node client by the methods actually called, so a fake can satisfy the
// interface in tests without pulling in a live daemon.
package providers

import (
	"context"
	"strconv"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/ordswap/engine/config"
)

// Outpoint is a lightweight, comparable stand-in for wire.OutPoint that
// providers key their responses by; it stringifies as "txid:vout" per
// spec.md §3.
type Outpoint struct {
	Txid chainhash.Hash
	Vout uint32
}

// String renders the outpoint as "txid:vout".
func (o Outpoint) String() string {
	return o.Txid.String() + ":" + strconv.FormatUint(uint64(o.Vout), 10)
}

// VerboseVin is one input of a verbose transaction, as returned by
// GetRawTransactionVerbose (§6).
type VerboseVin struct {
	Txid     chainhash.Hash
	Vout     uint32
	Sequence uint32
}

// VerboseVout is one output of a verbose transaction.
type VerboseVout struct {
	Value btcutil.Amount
	N     uint32
}

// VerboseTx is the node's verbose transaction view (§6).
type VerboseTx struct {
	Txid          chainhash.Hash
	Hex           string
	BlockHash     string
	BlockTime     int64
	Confirmations int64
	Vin           []VerboseVin
	Vout          []VerboseVout
}

// AnalyzeInput is one entry of AnalyzePsbtResult.Inputs.
type AnalyzeInput struct {
	HasUTXO bool
	IsFinal bool
	Next    string
}

// AnalyzePsbtResult mirrors the node's analyze_psbt response (§6).
type AnalyzePsbtResult struct {
	Inputs []AnalyzeInput
	Next   string
}

// FinalizePsbtResult mirrors the node's finalize_psbt response (§6).
type FinalizePsbtResult struct {
	Hex      string
	Complete bool
}

// MempoolAcceptResult is one entry of the test_mempool_accept response
// (§6).
type MempoolAcceptResult struct {
	Txid         chainhash.Hash
	Wtxid        chainhash.Hash
	Allowed      bool
	VSize        int64
	BaseFee      btcutil.Amount
	RejectReason string
}

// RPCProvider is the node-level provider interface of §6. One instance
// is bound per chain via a Session (see the providers.Bundle type).
type RPCProvider interface {
	GetRawTransaction(ctx context.Context, txid chainhash.Hash) (string, error)
	GetRawTransactionVerbose(ctx context.Context, txid chainhash.Hash) (*VerboseTx, error)
	AnalyzePsbt(ctx context.Context, psbtB64 string) (*AnalyzePsbtResult, error)
	FinalizePsbt(ctx context.Context, psbtB64 string) (*FinalizePsbtResult, error)
	TestMempoolAccept(ctx context.Context, rawTxHex []string) ([]MempoolAcceptResult, error)
	SendRawTransaction(ctx context.Context, rawTxHex string) (chainhash.Hash, error)
	GetRawMempool(ctx context.Context) ([]chainhash.Hash, error)
}

// FeeProvider is the fee-oracle interface of §6.
type FeeProvider interface {
	GetFee(ctx context.Context, tier config.FeeTier) (btcutil.Amount, error)
	GetFeesRecommended(ctx context.Context) (map[config.FeeTier]btcutil.Amount, error)
}

// AddressTxsUtxo is one entry returned by the UTXO provider (§6);
// naming follows the field the spec names explicitly.
type AddressTxsUtxo struct {
	Outpoint  Outpoint
	Value     btcutil.Amount
	Confirmed bool
}

// UTXOProvider is the address-indexer interface of §6.
type UTXOProvider interface {
	GetAddressUTXOs(ctx context.Context, addr string) ([]AddressTxsUtxo, error)
}

// InscriptionLocation is the tuple txid:vout:offset from spec.md §3.
type InscriptionLocation struct {
	Outpoint Outpoint
	Offset   int64
}

// Item is the minimal inscription record of spec.md §3.
type Item struct {
	ID           string
	Owner        string
	Location     InscriptionLocation
	Output       Outpoint
	OutputValue  btcutil.Amount
}

// ItemProvider is the inscription-indexer interface of §6.
type ItemProvider interface {
	GetTokenByOutput(ctx context.Context, out Outpoint) (*Item, error)
	GetTokenByID(ctx context.Context, id string) (*Item, error)
}

// MarketplaceFeeProvider is the optional marketplace-fee interface of
// §6. A nil MarketplaceFeeProvider is treated as "zero fee" throughout
// the engine, per §4.5 rule 4.
type MarketplaceFeeProvider interface {
	GetMakerFeeBP(ctx context.Context, addr string) (uint16, error)
	GetTakerFeeBP(ctx context.Context, addr string) (uint16, error)
}

// Bundle groups the providers a session needs. Every field except
// MarketplaceFee is required.
type Bundle struct {
	RPC            RPCProvider
	Fee            FeeProvider
	UTXO           UTXOProvider
	Item           ItemProvider
	MarketplaceFee MarketplaceFeeProvider
}

// MakerFeeBP returns the maker fee in basis points for addr, treating a
// nil MarketplaceFee provider or a provider error as zero (§4.5 rule 4
// only requires zero-if-absent; provider errors on this optional path
// are not part of the fail-closed taint policy of §4.2 and are
// deliberately non-fatal here).
func (b Bundle) MakerFeeBP(ctx context.Context, addr string) uint16 {
	if b.MarketplaceFee == nil {
		return 0
	}

	bp, err := b.MarketplaceFee.GetMakerFeeBP(ctx, addr)
	if err != nil {
		return 0
	}

	return bp
}

// TakerFeeBP returns the taker fee in basis points for addr, treating a
// nil MarketplaceFee provider or a provider error as zero.
func (b Bundle) TakerFeeBP(ctx context.Context, addr string) uint16 {
	if b.MarketplaceFee == nil {
		return 0
	}

	bp, err := b.MarketplaceFee.GetTakerFeeBP(ctx, addr)
	if err != nil {
		return 0
	}

	return bp
}
