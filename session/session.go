// Copyright (c) 2024 The ordswap developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package session ties together the three things every operation in the
// swap engine needs: a chain profile, a provider bundle, and a config.
// This generalizes the teacher's namespaced-free-function style
// ("Seller...", "Buyer..." in the source spec is distilled) into two
// stateless services (listing, purchase) that both depend on a shared
// Session, per the redesign guidance in spec.md §9.
package session

import (
	"github.com/ordswap/engine/chainprofile"
	"github.com/ordswap/engine/config"
	"github.com/ordswap/engine/providers"
)

// Session bundles the immutable context an operation is executed under.
// A Session has no mutable state of its own and may be shared across
// goroutines; the mutable Listing document (see the state package) is
// owned by exactly one calling session (spec.md §3, "Ownership &
// lifetime").
type Session struct {
	Chain     *chainprofile.Profile
	Providers providers.Bundle
	Config    *config.Config
}

// New builds a Session from explicit dependencies, applying config
// defaults when cfg is nil.
func New(chain *chainprofile.Profile, provs providers.Bundle, cfg *config.Config) *Session {
	if cfg == nil {
		cfg = config.Default()
	}

	return &Session{Chain: chain, Providers: provs, Config: cfg}
}
