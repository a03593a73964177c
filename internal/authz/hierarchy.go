// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package authz

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// ErrHierarchyCycle is returned when role inheritance loops.
var ErrHierarchyCycle = errors.New("role hierarchy contains a cycle")

// RoleScopes resolves the scopes a role implies.
type RoleScopes interface {
	ImpliedScopes(role string) ScopeSet
}

// HierarchySource locates the Casbin model and policy. Empty paths select
// the embedded defaults.
type HierarchySource struct {
	ModelPath  string
	PolicyPath string
}

// RoleHierarchy is an immutable role -> implied scopes table.
type RoleHierarchy struct {
	implied  map[string]ScopeSet
	parents  map[string][]string
	loadedAt time.Time
}

// DefaultRoleHierarchy loads the embedded model and policy.
func DefaultRoleHierarchy() (*RoleHierarchy, error) {
	return LoadRoleHierarchy(HierarchySource{})
}

// LoadRoleHierarchy builds a snapshot from src. The hierarchy must be acyclic.
func LoadRoleHierarchy(src HierarchySource) (*RoleHierarchy, error) {
	var m model.Model
	var err error

	if src.ModelPath != "" {
		m, err = model.NewModelFromFile(src.ModelPath)
	} else {
		m, err = model.NewModelFromString(embeddedModel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var enforcer *casbin.Enforcer
	if src.PolicyPath != "" {
		if _, statErr := os.Stat(src.PolicyPath); statErr != nil {
			return nil, fmt.Errorf("policy file: %w", statErr)
		}
		enforcer, err = casbin.NewEnforcer(m, fileadapter.NewAdapter(src.PolicyPath))
	} else {
		enforcer, err = casbin.NewEnforcer(m)
		if err == nil {
			err = loadEmbeddedPolicy(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	return buildHierarchy(enforcer)
}

// loadEmbeddedPolicy parses and loads the embedded policy CSV.
func loadEmbeddedPolicy(enforcer *casbin.Enforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) != 3 {
			return fmt.Errorf("invalid policy line %q", line)
		}

		switch parts[0] {
		case "p":
			if _, err := enforcer.AddPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", parts[1:], err)
			}
		case "g":
			if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", parts[1:], err)
			}
		default:
			return fmt.Errorf("unknown policy type %q", parts[0])
		}
	}
	return nil
}

// buildHierarchy flattens the enforcer's policy into a snapshot.
func buildHierarchy(enforcer *casbin.Enforcer) (*RoleHierarchy, error) {
	policies, err := enforcer.GetPolicy()
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}
	groupings, err := enforcer.GetGroupingPolicy()
	if err != nil {
		return nil, fmt.Errorf("read grouping policy: %w", err)
	}

	h := &RoleHierarchy{
		implied:  make(map[string]ScopeSet),
		parents:  make(map[string][]string),
		loadedAt: time.Now(),
	}

	roles := make(map[string]struct{})
	for _, p := range policies {
		if len(p) < 2 {
			continue
		}
		roles[p[0]] = struct{}{}
	}
	for _, g := range groupings {
		if len(g) < 2 {
			continue
		}
		roles[g[0]] = struct{}{}
		roles[g[1]] = struct{}{}
		h.parents[g[0]] = append(h.parents[g[0]], g[1])
	}
	for role := range h.parents {
		slices.Sort(h.parents[role])
	}

	if cycle := findCycle(h.parents); cycle != nil {
		return nil, fmt.Errorf("%w: %s", ErrHierarchyCycle, strings.Join(cycle, " -> "))
	}

	for role := range roles {
		perms, err := enforcer.GetImplicitPermissionsForUser(role)
		if err != nil {
			return nil, fmt.Errorf("resolve scopes of %q: %w", role, err)
		}
		scopes := make([]string, 0, len(perms))
		for _, p := range perms {
			if len(p) >= 2 {
				scopes = append(scopes, p[1])
			}
		}
		h.implied[role] = NewScopeSet(scopes...)
	}

	return h, nil
}

// findCycle returns one inheritance cycle, or nil.
func findCycle(parents map[string][]string) []string {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int)
	var path []string
	var cycle []string

	var visit func(role string) bool
	visit = func(role string) bool {
		switch state[role] {
		case visiting:
			start := slices.Index(path, role)
			cycle = append(slices.Clone(path[start:]), role)
			return true
		case done:
			return false
		}
		state[role] = visiting
		path = append(path, role)
		for _, p := range parents[role] {
			if visit(p) {
				return true
			}
		}
		path = path[:len(path)-1]
		state[role] = done
		return false
	}

	roles := make([]string, 0, len(parents))
	for r := range parents {
		roles = append(roles, r)
	}
	slices.Sort(roles)
	for _, r := range roles {
		if visit(r) {
			return cycle
		}
	}
	return nil
}

// ImpliedScopes returns the scopes role grants. Unknown roles imply nothing.
func (h *RoleHierarchy) ImpliedScopes(role string) ScopeSet {
	if h == nil {
		return ScopeSet{}
	}
	return h.implied[role]
}

// Roles returns every role named by the policy, sorted.
func (h *RoleHierarchy) Roles() []string {
	roles := make([]string, 0, len(h.implied))
	for r := range h.implied {
		roles = append(roles, r)
	}
	slices.Sort(roles)
	return roles
}

// Inherits returns the roles role directly inherits from.
func (h *RoleHierarchy) Inherits(role string) []string {
	return slices.Clone(h.parents[role])
}

// LoadedAt returns when the snapshot was built.
func (h *RoleHierarchy) LoadedAt() time.Time {
	return h.loadedAt
}

// Equal reports whether both snapshots grant the same scopes to the same roles.
func (h *RoleHierarchy) Equal(o *RoleHierarchy) bool {
	if h == nil || o == nil {
		return h == o
	}
	if len(h.implied) != len(o.implied) {
		return false
	}
	for role, scopes := range h.implied {
		other, ok := o.implied[role]
		if !ok || !scopes.Equal(other) {
			return false
		}
	}
	return true
}

// HierarchyHolder publishes the current RoleHierarchy. Readers never block;
// reloads swap the pointer.
type HierarchyHolder struct {
	current atomic.Pointer[RoleHierarchy]
}

// NewHierarchyHolder creates a holder serving h.
func NewHierarchyHolder(h *RoleHierarchy) *HierarchyHolder {
	holder := &HierarchyHolder{}
	holder.current.Store(h)
	return holder
}

// Load returns the current snapshot.
func (hh *HierarchyHolder) Load() *RoleHierarchy {
	return hh.current.Load()
}

// Swap installs next and returns the previous snapshot.
func (hh *HierarchyHolder) Swap(next *RoleHierarchy) *RoleHierarchy {
	return hh.current.Swap(next)
}

// ImpliedScopes resolves role against the current snapshot.
func (hh *HierarchyHolder) ImpliedScopes(role string) ScopeSet {
	return hh.Load().ImpliedScopes(role)
}
