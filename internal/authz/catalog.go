// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package authz

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/tomtom215/clinicguard/internal/config"
)

// ErrUnknownOperation is returned by Catalog.Require for undeclared names.
var ErrUnknownOperation = errors.New("unknown operation")

// Catalog maps operation names to their permission requirements.
type Catalog struct {
	ops map[string]Operation
}

// NewCatalog builds a catalog. Names must be unique and groups non-empty.
func NewCatalog(ops ...Operation) (*Catalog, error) {
	c := &Catalog{ops: make(map[string]Operation, len(ops))}
	for _, op := range ops {
		name := strings.TrimSpace(op.Name)
		if name == "" {
			return nil, errors.New("operation name is required")
		}
		if _, dup := c.ops[name]; dup {
			return nil, fmt.Errorf("operation %q declared twice", name)
		}
		for i, g := range op.Requirement.AnyOf {
			if len(g) == 0 {
				return nil, fmt.Errorf("operation %q: any_of group %d is empty", name, i)
			}
		}
		op.Name = name
		c.ops[name] = op
	}
	return c, nil
}

// CatalogFromConfig builds a catalog from configured operations.
func CatalogFromConfig(ops map[string]config.OperationConfig) (*Catalog, error) {
	list := make([]Operation, 0, len(ops))
	for name, oc := range ops {
		list = append(list, Operation{
			Name: name,
			Requirement: PermissionRequirement{
				AllOf: slices.Clone(oc.AllOf),
				AnyOf: slices.Clone(oc.AnyOf),
			},
		})
	}
	return NewCatalog(list...)
}

// Lookup returns the operation named name.
func (c *Catalog) Lookup(name string) (Operation, bool) {
	if c == nil {
		return Operation{}, false
	}
	op, ok := c.ops[name]
	return op, ok
}

// Require returns the requirement of name. Unknown operations get a
// requirement no principal satisfies.
func (c *Catalog) Require(name string) (PermissionRequirement, error) {
	op, ok := c.Lookup(name)
	if !ok {
		return denyAll(), fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}
	return op.Requirement, nil
}

// Names returns the declared operation names, sorted.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.ops))
	for n := range c.ops {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
