package cli

import (
	"flag"
	"fmt"

	"github.com/platinummonkey/gatekeep/pkg/rbac"
)

func newCheckCommand() *Command {
	cmd := &Command{
		Name:        "check",
		Description: "Check whether a role holds a permission",
		Flags:       flag.NewFlagSet("check", flag.ContinueOnError),
		Run:         runCheck,
	}

	cmd.Flags.String("role", "", "Role to check")
	cmd.Flags.String("permission", "", "Permission token, e.g. courses:update")
	cmd.Flags.String("resource", "", "Resource, used with -action instead of -permission")
	cmd.Flags.String("action", "", "Action, used with -resource")
	cmd.Flags.String("custom", "", "Comma-separated custom permissions")
	cmd.Flags.String("owner", "", "Resource owner ID, enables the ownership check")
	cmd.Flags.String("user", "", "Principal ID compared against -owner")

	return cmd
}

func runCheck(args []string) error {
	cmd := newCheckCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}
	value := func(name string) string {
		return cmd.Flags.Lookup(name).Value.String()
	}

	role, err := rbac.ParseRole(value("role"))
	if err != nil {
		return err
	}

	var perm rbac.Permission
	switch {
	case value("permission") != "":
		perm, err = rbac.ParsePermission(value("permission"))
	case value("resource") != "" && value("action") != "":
		perm, err = rbac.ParsePermission(string(rbac.NewPermission(rbac.Resource(value("resource")), rbac.Action(value("action")))))
	default:
		return fmt.Errorf("either -permission or -resource and -action is required")
	}
	if err != nil {
		return err
	}

	custom, unknown := rbac.ParsePermissionSet(splitList(value("custom")))
	for _, u := range unknown {
		fmt.Fprintf(stdout, "warning: ignoring unknown custom permission %q\n", u)
	}

	allowed := rbac.HasPermission(role, perm, custom)
	fmt.Fprintf(stdout, "%s %s: %s\n", role, perm, verdict(allowed))

	if owner := value("owner"); owner != "" {
		canEdit := rbac.CanEditOwnResource(role, owner, value("user"), custom)
		fmt.Fprintf(stdout, "edit resource owned by %s: %s\n", owner, verdict(canEdit))
		allowed = allowed && canEdit
	}

	if !allowed {
		return ErrDenied
	}
	return nil
}

func newCanChangeCommand() *Command {
	cmd := &Command{
		Name:        "can-change",
		Description: "Check whether a role may reassign another",
		Flags:       flag.NewFlagSet("can-change", flag.ContinueOnError),
		Run:         runCanChange,
	}

	cmd.Flags.String("actor", "", "Role of the user making the change")
	cmd.Flags.String("target", "", "Current role of the user being changed")
	cmd.Flags.String("new", "", "Role being assigned")

	return cmd
}

func runCanChange(args []string) error {
	cmd := newCanChangeCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	roles := make([]rbac.Role, 0, 3)
	for _, name := range []string{"actor", "target", "new"} {
		role, err := rbac.ParseRole(cmd.Flags.Lookup(name).Value.String())
		if err != nil {
			return fmt.Errorf("-%s: %w", name, err)
		}
		roles = append(roles, role)
	}
	actor, target, newRole := roles[0], roles[1], roles[2]

	allowed := rbac.CanChangeRole(actor, target, newRole)
	fmt.Fprintf(stdout, "%s (rank %d) changing %s (rank %d) to %s (rank %d): %s\n",
		actor, rbac.Rank(actor), target, rbac.Rank(target), newRole, rbac.Rank(newRole), verdict(allowed))

	if !allowed {
		return ErrDenied
	}
	return nil
}

func verdict(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "denied"
}
