// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package state defines the single mutable "listing state" document
// described in spec.md §3: a value that flows from ListingBuilder
// through PurchaseBuilder to Combiner/Verifier, accumulating PSBTs at
// each step. It is exclusively owned by whichever calling session holds
// it; nothing in this engine shares one across goroutines.
package state

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"

	"github.com/ordswap/engine/chainprofile"
	"github.com/ordswap/engine/config"
	"github.com/ordswap/engine/providers"
)

// Seller carries every field ListingBuilder needs plus the artifacts it
// produces.
type Seller struct {
	// MakerFeeBP is the marketplace maker fee, in basis points.
	MakerFeeBP uint16

	// OrdAddress is the seller's ordinal-holding address (must equal
	// OrdItem.Owner).
	OrdAddress string

	// Price is the listing price in satoshis.
	Price btcutil.Amount

	// OrdItem is the inscription being listed.
	OrdItem providers.Item

	// ReceiveAddress is the address the seller half-PSBT's single output
	// pays.
	ReceiveAddress string

	// TapInternalKey is the seller's x-only taproot internal key,
	// required only when OrdItem.Output classifies as AddressP2TR.
	TapInternalKey *btcec.PublicKey

	// UnsignedListingPSBT holds the packet listing.Build returns; Build
	// takes the Seller by value, so the caller stores it here.
	UnsignedListingPSBT *psbt.Packet

	// SignedListingPSBT is populated once the seller has signed
	// UnsignedListingPSBT out of band and handed it back.
	SignedListingPSBT *psbt.Packet
}

// Buyer carries every field PurchaseBuilder needs plus the artifacts it
// produces, added to the Listing at purchase time.
type Buyer struct {
	// TakerFeeBP is the marketplace taker fee, in basis points.
	TakerFeeBP uint16

	// PaymentAddress funds the purchase and receives change/new dummies.
	PaymentAddress string

	// TokenReceiveAddress receives the inscription.
	TokenReceiveAddress string

	// FeeRateTier selects the fee-oracle tier used for fee sizing.
	FeeRateTier config.FeeTier

	// PaymentPubKey is required when PaymentAddress classifies as
	// AddressP2SH (P2SH-wrapped segwit synthesis).
	PaymentPubKey []byte

	// DummyUTXOs are the two selected dummy inputs (spec.md §3: "the
	// core consumes exactly two per purchase").
	DummyUTXOs [2]providers.AddressTxsUtxo

	// PaymentUTXOs are the selected coins funding price + fees.
	PaymentUTXOs []providers.AddressTxsUtxo

	// UnsignedBuyingPSBT is populated by purchase.Build.
	UnsignedBuyingPSBT *psbt.Packet

	// SignedBuyingPSBT is populated once the buyer has signed every
	// input except the placeholder slot.
	SignedBuyingPSBT *psbt.Packet

	// MergedPSBT holds the packet swap.Merge returns; Merge works on
	// packets only, so the caller stores it here.
	MergedPSBT *psbt.Packet
}

// Listing is the single mutable document passed between calls, per
// spec.md §3.
type Listing struct {
	Network *chainprofile.Profile
	Seller  Seller
	Buyer   *Buyer
}

// NewListing starts a fresh listing state document for network.
func NewListing(network *chainprofile.Profile, seller Seller) *Listing {
	return &Listing{Network: network, Seller: seller}
}

// WithBuyer attaches buyer details to the listing, returning the same
// pointer for chaining.
func (l *Listing) WithBuyer(buyer Buyer) *Listing {
	l.Buyer = &buyer

	return l
}
