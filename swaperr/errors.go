// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package swaperr defines the closed taxonomy of error kinds surfaced by
// the swap engine (§7 of the protocol spec) and a boundary error type
// that carries one of those kinds plus the underlying cause. Individual
// packages keep their own local sentinel errors (in the style of
// wallet.ErrWalletShuttingDown in the teacher repo) and wrap them into a
// *swaperr.Error of the appropriate kind wherever they cross a package
// boundary the caller is expected to branch on.
package swaperr

import (
	"errors"
	"fmt"
)

// Kind identifies the category of failure a swap-engine operation can
// report. Callers branch on Kind rather than on error strings.
type Kind uint8

const (
	// KindUnknown is the zero value and should never be returned by the
	// engine; its presence indicates a bug.
	KindUnknown Kind = iota

	// KindInvalidArgument covers malformed input: bad addresses, missing
	// buyer pubkey for P2SH inputs, unknown chains, and schema violations
	// on inbound PSBTs (wrong input count, invalid taproot witness,
	// tokenId/price/receive-address/seller-address mismatches).
	KindInvalidArgument

	// KindInsufficientFunds covers coin selection failing to cover the
	// requested amount plus the estimated fee.
	KindInsufficientFunds

	// KindInscriptionTaint covers a selection routine that exhausted
	// candidates because every sufficiently large UTXO was inscription
	// bearing. Per §7 this is surfaced to the caller as
	// KindInsufficientFunds; KindInscriptionTaint exists so internal
	// logging can distinguish the two causes.
	KindInscriptionTaint

	// KindProviderError covers a transient failure of an external RPC,
	// indexer, or fee-oracle provider.
	KindProviderError

	// KindProtocolError covers node-side PSBT finalization or mempool
	// rejection.
	KindProtocolError
)

// String returns a human-readable name for the error kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindInscriptionTaint:
		return "inscription_taint"
	case KindProviderError:
		return "provider_error"
	case KindProtocolError:
		return "protocol_error"
	default:
		return "unknown"
	}
}

// Error is the boundary error type returned by public swap-engine
// operations. It always carries a Kind so callers can make policy
// decisions (retry, surface to user, abort) without string matching.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

// Unwrap allows errors.Is/errors.As to see through to the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new *Error of the given kind.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap creates a new *Error of the given kind, wrapping cause.
func Wrap(kind Kind, op, msg string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: cause}
}

// Is reports whether err is a *Error of the given kind. It walks the
// wrap chain and checks the first *Error found, so a *Error wrapped by
// fmt.Errorf still matches; a chain with no *Error in it (such as a bare
// sentinel) never matches.
func Is(err error, kind Kind) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind == kind
	}

	return false
}
