// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package config carries the tunable constants of the swap engine (§6
// of the protocol spec). It follows the teacher's "params struct with
// documented field-by-field defaults" style (see
// wallet.CreateWalletParams in the teacher repo) rather than a global
// mutable singleton, so a session can run several engines with
// different tunables side by side.
package config

import "github.com/btcsuite/btcd/btcutil"

// Default dummy-UTXO and postage values, expressed in satoshis, as
// documented in §6 of the protocol spec.
const (
	// DefaultDummyValue is the value of freshly-created dummy UTXOs.
	DefaultDummyValue btcutil.Amount = 600

	// DefaultDummyMinValue is the minimum value a UTXO may have to be
	// selected as a dummy.
	DefaultDummyMinValue btcutil.Amount = 580

	// DefaultDummyMaxValue is the maximum value a UTXO may have to be
	// selected as a dummy.
	DefaultDummyMaxValue btcutil.Amount = 1000

	// DefaultOrdinalsPostage is the value given to the buyer's ordinal
	// receive output.
	DefaultOrdinalsPostage btcutil.Amount = 10_000

	// DefaultDelistMagicPrice is the reserved out-of-band delisting
	// price signal (§6, §4 of SPEC_FULL.md).
	DefaultDelistMagicPrice btcutil.Amount = 20_000_000 * 1e8
)

// FeeTier names one of the four fee-oracle buckets defined in §6.
type FeeTier string

// The four recognized fee-oracle tiers. An unrecognized tier string
// falls back to TierHour, matching §6's "default tier for unrecognized
// strings is hourFee".
const (
	TierFastest FeeTier = "fastestFee"
	TierHalfHour FeeTier = "halfHourFee"
	TierHour     FeeTier = "hourFee"
	TierMinimum  FeeTier = "minimumFee"
)

// Normalize maps an arbitrary tier string onto one of the four known
// tiers, defaulting to TierHour.
func (t FeeTier) Normalize() FeeTier {
	switch t {
	case TierFastest, TierHalfHour, TierHour, TierMinimum:
		return t
	default:
		return TierHour
	}
}

// Config bundles the tunables consumed by the purchase builder and the
// UTXO classifier. Default() returns one populated with the package
// defaults and then applies any Options.
type Config struct {
	// DummyValue is the value given to freshly minted dummy outputs.
	DummyValue btcutil.Amount

	// DummyMinValue and DummyMaxValue bound the [min, max] range a
	// candidate UTXO's value must fall in to be selected as a dummy.
	DummyMinValue btcutil.Amount
	DummyMaxValue btcutil.Amount

	// OrdinalsPostage is the value of the buyer's ordinal-receive output.
	OrdinalsPostage btcutil.Amount

	// PlatformFeeAddress receives the platform fee output. An empty
	// string suppresses the platform fee output entirely (§6).
	PlatformFeeAddress string

	// DelistMagicPrice is the reserved price constant that, when it
	// appears as a listing's price, is interpreted by the verifier as an
	// out-of-band delisting signal (SPEC_FULL.md §4.4).
	DelistMagicPrice btcutil.Amount
}

// Option mutates a Config being built by Default.
type Option func(*Config)

// WithDummyRange overrides the dummy-UTXO value bounds.
func WithDummyRange(value, min, max btcutil.Amount) Option {
	return func(c *Config) {
		c.DummyValue = value
		c.DummyMinValue = min
		c.DummyMaxValue = max
	}
}

// WithOrdinalsPostage overrides the postage given to the buyer's
// ordinal-receive output.
func WithOrdinalsPostage(v btcutil.Amount) Option {
	return func(c *Config) { c.OrdinalsPostage = v }
}

// WithPlatformFeeAddress sets the address that receives the platform fee
// output. Passing an empty string suppresses the output.
func WithPlatformFeeAddress(addr string) Option {
	return func(c *Config) { c.PlatformFeeAddress = addr }
}

// WithDelistMagicPrice overrides the reserved delisting price constant.
func WithDelistMagicPrice(v btcutil.Amount) Option {
	return func(c *Config) { c.DelistMagicPrice = v }
}

// Default returns a Config populated with the documented defaults.
func Default(opts ...Option) *Config {
	c := &Config{
		DummyValue:       DefaultDummyValue,
		DummyMinValue:    DefaultDummyMinValue,
		DummyMaxValue:    DefaultDummyMaxValue,
		OrdinalsPostage:  DefaultOrdinalsPostage,
		PlatformFeeAddress: "",
		DelistMagicPrice: DefaultDelistMagicPrice,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}
