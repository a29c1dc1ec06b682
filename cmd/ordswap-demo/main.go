// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command ordswap-demo wires the swap engine's building blocks together
// end to end against an in-memory chain fixture and prints the two
// resulting half-PSBTs. It exists to show how a caller assembles a
// Session and drives listing.Build and purchase.Build in sequence; it
// does not sign or merge, and it is deliberately not a wallet, a signer, or a
// broadcaster, matching the engine's own "wire construction only"
// scope.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/ordswap/engine/chainprofile"
	"github.com/ordswap/engine/config"
	"github.com/ordswap/engine/listing"
	"github.com/ordswap/engine/providers"
	"github.com/ordswap/engine/purchase"
	"github.com/ordswap/engine/session"
	"github.com/ordswap/engine/state"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ordswap-demo:", err)
		os.Exit(1)
	}
}

func run() error {
	opts, err := loadOptions()
	if err != nil {
		return err
	}

	if err := initLogging(opts.LogDir, opts.Debug); err != nil {
		return err
	}
	defer closeLogging()

	chain, ok := chainprofile.ByName(opts.Chain)
	if !ok {
		return fmt.Errorf("unknown chain profile %q", opts.Chain)
	}

	demoLog.Infof("starting demo against %s", chain.Name())

	ctx := context.Background()

	mem := newMemoryChain()

	sellerScript := p2wpkhScript(0x11)
	buyerPaymentScript := p2wpkhScript(0x22)
	buyerReceiveScript := p2wpkhScript(0x33)

	sellerAddr := mustAddress(chain, sellerScript)
	buyerPaymentAddr := mustAddress(chain, buyerPaymentScript)
	buyerReceiveAddr := mustAddress(chain, buyerReceiveScript)

	const outputValue = btcutil.Amount(10_000)

	inscriptionOutpoint := mem.fundAddress(sellerAddr, sellerScript, outputValue, true)
	mem.items[inscriptionOutpoint] = &providers.Item{
		ID:          "demo-inscription-0",
		Owner:       sellerAddr,
		Location:    providers.InscriptionLocation{Outpoint: inscriptionOutpoint, Offset: 0},
		Output:      inscriptionOutpoint,
		OutputValue: outputValue,
	}

	cfg := config.Default(config.WithOrdinalsPostage(outputValue))

	// Two dummy-sized UTXOs plus one payment UTXO comfortably covering
	// price and fees, all on the buyer's payment address.
	mem.fundAddress(buyerPaymentAddr, buyerPaymentScript, cfg.DummyValue, true)
	mem.fundAddress(buyerPaymentAddr, buyerPaymentScript, cfg.DummyValue, true)
	mem.fundAddress(buyerPaymentAddr, buyerPaymentScript, btcutil.Amount(opts.Price)*2, true)

	sess := session.New(chain, mem.bundle(), cfg)

	seller := state.Seller{
		MakerFeeBP:     opts.MakerFeeBP,
		OrdAddress:     sellerAddr,
		Price:          btcutil.Amount(opts.Price),
		OrdItem:        *mem.items[inscriptionOutpoint],
		ReceiveAddress: sellerAddr,
	}

	sellerPSBT, err := listing.Build(ctx, sess, seller)
	if err != nil {
		return fmt.Errorf("build listing: %w", err)
	}

	sellerB64, err := sellerPSBT.B64Encode()
	if err != nil {
		return fmt.Errorf("encode listing psbt: %w", err)
	}

	demoLog.Infof("seller listing psbt: %s", sellerB64)

	l := state.NewListing(chain, seller).WithBuyer(state.Buyer{
		TakerFeeBP:          opts.TakerFeeBP,
		PaymentAddress:      buyerPaymentAddr,
		TokenReceiveAddress: buyerReceiveAddr,
		FeeRateTier:         config.TierHour,
	})

	buyerPSBT, err := purchase.Build(ctx, sess, l)
	if err != nil {
		return fmt.Errorf("build purchase: %w", err)
	}

	buyerB64, err := buyerPSBT.B64Encode()
	if err != nil {
		return fmt.Errorf("encode purchase psbt: %w", err)
	}

	demoLog.Infof("buyer purchase psbt: %s", buyerB64)

	fmt.Println("seller listing psbt:")
	fmt.Println(sellerB64)
	fmt.Println()
	fmt.Println("buyer purchase psbt (seller input still a placeholder):")
	fmt.Println(buyerB64)
	fmt.Println()
	fmt.Println("neither psbt is signed; this demo stops before signing, merging, or broadcasting.")

	return nil
}
