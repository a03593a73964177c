// Clinicguard - Clinic Platform Request Authorization Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clinicguard

package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tomtom215/clinicguard/internal/authz"
)

// roleView is one role of the effective hierarchy.
type roleView struct {
	Role     string   `json:"role"`
	Inherits []string `json:"inherits"`
	Scopes   []string `json:"scopes"`
}

func newRolesCmd(root *rootOptions) *cobra.Command {
	var (
		output     string
		modelPath  string
		policyPath string
	)

	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Print the effective role hierarchy",
		Long: `Load the role hierarchy from the configured model and policy (or the
embedded defaults) and print each role with the roles it inherits and
every scope it implies after inheritance.

Examples:
  clinicguard roles
  clinicguard roles -o json --policy ./policy.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src := authz.HierarchySource{
				ModelPath:  root.cfg.Authz.ModelPath,
				PolicyPath: root.cfg.Authz.PolicyPath,
			}
			if modelPath != "" {
				src.ModelPath = modelPath
			}
			if policyPath != "" {
				src.PolicyPath = policyPath
			}

			h, err := authz.LoadRoleHierarchy(src)
			if err != nil {
				return err
			}
			views := describeRoles(h)

			switch output {
			case "json":
				return writeJSON(cmd.OutOrStdout(), views)
			case "table", "":
				return writeRoleTable(cmd.OutOrStdout(), views)
			default:
				return fmt.Errorf("unsupported output %q: want table or json", output)
			}
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table or json")
	cmd.Flags().StringVar(&modelPath, "model", "", "Casbin model file (overrides authz.model_path)")
	cmd.Flags().StringVar(&policyPath, "policy", "", "Casbin policy file (overrides authz.policy_path)")
	return cmd
}

func describeRoles(h *authz.RoleHierarchy) []roleView {
	roles := h.Roles()
	views := make([]roleView, 0, len(roles))
	for _, r := range roles {
		inherits := h.Inherits(r)
		if inherits == nil {
			inherits = []string{}
		}
		views = append(views, roleView{
			Role:     r,
			Inherits: inherits,
			Scopes:   h.ImpliedScopes(r).Slice(),
		})
	}
	return views
}

func writeRoleTable(w io.Writer, views []roleView) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ROLE\tINHERITS\tSCOPES")
	for _, v := range views {
		inherits := strings.Join(v.Inherits, ",")
		if inherits == "" {
			inherits = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", v.Role, inherits, strings.Join(v.Scopes, " "))
	}
	return tw.Flush()
}
