/*
 * SPDX-FileCopyrightText: © Metastore, Inc. and Contributors
 * SPDX-License-Identifier: Apache-2.0
 */

package upgrade

import (
	"sort"

	"github.com/pkg/errors"
)

// Registry maps upgrade ids to upgrades. It is populated by explicit
// Register calls at startup; there is no dynamic or reflective dispatch.
// Not safe for concurrent mutation; register everything before executing.
type Registry struct {
	upgrades map[string]Upgrade
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{upgrades: make(map[string]Upgrade)}
}

// Register adds an upgrade to the registry. Registering a second upgrade
// with the same id is a wiring bug and returns an error.
func (r *Registry) Register(u Upgrade) error {
	if u.ID() == "" {
		return errors.Errorf("upgrade id must not be empty")
	}
	if _, dup := r.upgrades[u.ID()]; dup {
		return errors.Errorf("upgrade %q registered twice", u.ID())
	}
	r.upgrades[u.ID()] = u
	return nil
}

// Get returns the upgrade registered under id, if any.
func (r *Registry) Get(id string) (Upgrade, bool) {
	u, ok := r.upgrades[id]
	return u, ok
}

// IDs returns the registered upgrade ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.upgrades))
	for id := range r.upgrades {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
