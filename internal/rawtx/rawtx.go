// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package rawtx fetches and decodes a full previous transaction from
// the node RPC provider, shared by listing and purchase whenever a PSBT
// input needs its non-witness UTXO attached.
package rawtx

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/ordswap/engine/providers"
)

// Fetch retrieves and deserializes the transaction identified by txid.
func Fetch(ctx context.Context, rpc providers.RPCProvider, txid chainhash.Hash) (*wire.MsgTx, error) {
	rawHex, err := rpc.GetRawTransaction(ctx, txid)
	if err != nil {
		return nil, fmt.Errorf("fetch raw transaction %s: %w", txid, err)
	}

	raw, err := hex.DecodeString(rawHex)
	if err != nil {
		return nil, fmt.Errorf("decode raw transaction hex %s: %w", txid, err)
	}

	var tx wire.MsgTx
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("deserialize raw transaction %s: %w", txid, err)
	}

	return &tx, nil
}

// StripWitnesses returns a deep copy of tx with every input's
// witness cleared, normalizing a segwit-serialized transaction into the
// legacy wire form some non-witness signing paths require (spec.md §9).
func StripWitnesses(tx *wire.MsgTx) *wire.MsgTx {
	clone := tx.Copy()
	for _, in := range clone.TxIn {
		in.Witness = nil
	}

	return clone
}
