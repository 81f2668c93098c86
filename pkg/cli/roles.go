package cli

import (
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/platinummonkey/gatekeep/pkg/rbac"
)

func newRolesCommand() *Command {
	cmd := &Command{
		Name:        "roles",
		Description: "List the built-in roles",
		Flags:       flag.NewFlagSet("roles", flag.ContinueOnError),
		Run:         runRoles,
	}

	cmd.Flags.String("format", "text", "Output format (text, json, yaml)")

	return cmd
}

func runRoles(args []string) error {
	cmd := newRolesCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}
	format := cmd.Flags.Lookup("format").Value.String()

	roles := rbac.BuiltInRoles()
	if format != "text" {
		return writeStructured(format, roles)
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROLE\tRANK\tADMIN\tPERMISSIONS\tDESCRIPTION")
	for _, def := range roles {
		fmt.Fprintf(tw, "%s\t%d\t%t\t%d\t%s\n", def.Name, def.Rank, def.IsAdmin, def.Permissions.Len(), def.Description)
	}
	return tw.Flush()
}

func newMatrixCommand() *Command {
	cmd := &Command{
		Name:        "matrix",
		Description: "Print the role permission matrix",
		Flags:       flag.NewFlagSet("matrix", flag.ContinueOnError),
		Run:         runMatrix,
	}

	cmd.Flags.String("format", "yaml", "Output format (json, yaml)")
	cmd.Flags.String("role", "", "Only print this role")

	return cmd
}

func runMatrix(args []string) error {
	cmd := newMatrixCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}
	format := cmd.Flags.Lookup("format").Value.String()
	only := cmd.Flags.Lookup("role").Value.String()

	roles := rbac.AllRoles()
	if only != "" {
		role, err := rbac.ParseRole(only)
		if err != nil {
			return err
		}
		roles = []rbac.Role{role}
	}

	matrix := make(map[string][]string, len(roles))
	for _, role := range roles {
		matrix[string(role)] = rbac.Permissions(role).Strings()
	}
	return writeStructured(format, matrix)
}
