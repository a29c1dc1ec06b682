// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainprofile

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcwallet/wallet/txrules"
)

// IsDust reports whether an output of amount sats paying pkScript
// should be suppressed rather than added to a transaction: either it
// fails this chain's own dust limit, or it fails the standard
// relay-fee-based dust heuristic (the two coincide for Bitcoin itself; a
// custom low-fee chain's DustLimitSats can differ from what the
// Bitcoin-calibrated heuristic alone would say).
//
// The heuristic's scriptSize argument is the length of the output
// script itself, as txrules.IsDustOutput passes it:
// txrules.IsDustAmount already adds the size of the input that would
// later redeem the output, so the output is priced by the cost of
// creating and eventually spending it.
func (p *Profile) IsDust(amount btcutil.Amount, pkScript []byte) bool {
	if amount < p.params.DustLimitSats {
		return true
	}

	return txrules.IsDustAmount(amount, len(pkScript), txrules.DefaultRelayFeePerKb)
}
