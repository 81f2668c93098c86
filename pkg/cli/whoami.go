package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/platinummonkey/gatekeep/pkg/api"
	"github.com/platinummonkey/gatekeep/pkg/httputil"
)

func newWhoamiCommand() *Command {
	cmd := &Command{
		Name:        "whoami",
		Description: "Show the permissions of a session on a running server",
		Flags:       flag.NewFlagSet("whoami", flag.ContinueOnError),
		Run:         runWhoami,
	}

	cmd.Flags.String("server", "http://localhost:8080", "Gatekeep server URL")
	cmd.Flags.String("token", "", "Session token (defaults to $GATEKEEP_TOKEN)")
	cmd.Flags.String("format", "text", "Output format (text, json, yaml)")

	return cmd
}

func runWhoami(args []string) error {
	cmd := newWhoamiCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	server := strings.TrimRight(cmd.Flags.Lookup("server").Value.String(), "/")
	token := cmd.Flags.Lookup("token").Value.String()
	format := cmd.Flags.Lookup("format").Value.String()
	if token == "" {
		token = os.Getenv("GATEKEEP_TOKEN")
	}
	if token == "" {
		return fmt.Errorf("a session token is required")
	}

	req, err := http.NewRequest(http.MethodGet, server+"/v1/me/permissions", nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp httputil.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	var perms api.PermissionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&perms); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if format != "text" {
		return writeStructured(format, perms)
	}

	fmt.Fprintf(stdout, "id:      %s\n", perms.ID)
	fmt.Fprintf(stdout, "role:    %s\n", perms.Role)
	fmt.Fprintf(stdout, "tenant:  %s\n", perms.TenantID)
	fmt.Fprintf(stdout, "status:  %s\n", perms.Status)
	fmt.Fprintf(stdout, "admin:   %t\n", perms.IsAdmin)
	fmt.Fprintf(stdout, "permissions:\n")
	for _, p := range perms.Permissions {
		fmt.Fprintf(stdout, "  %s\n", p)
	}
	return nil
}
