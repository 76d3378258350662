package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
)

// execute runs the root command with fresh flag values and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := "database:\n  driver: sqlite\n  dsn: " + filepath.Join(dir, "cli.db") + `
auth:
  mode: none
  default_owner: cli
calendar:
  timezone: UTC
logging:
  level: error
`
	path := filepath.Join(dir, "vaultmeter.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

var idPattern = regexp.MustCompile(`(acc|evt)_[0-9a-f-]+`)

func createdID(t *testing.T, out string) string {
	t.Helper()
	id := idPattern.FindString(out)
	if id == "" {
		t.Fatalf("no id in output: %s", out)
	}
	return id
}

func TestVersion(t *testing.T) {
	out := mustExecute(t, "version")
	if !strings.Contains(out, "vaultmeter dev") {
		t.Errorf("output = %s", out)
	}
}

func TestHashToken(t *testing.T) {
	out := mustExecute(t, "hash-token", "s3cret", "--cost", "4")
	hash := strings.TrimSpace(out)
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")); err != nil {
		t.Errorf("hash does not match token: %v", err)
	}

	if _, err := execute(t, "hash-token"); err == nil {
		t.Error("expected error without a token")
	}
}

func TestHashToken_Generate(t *testing.T) {
	out := mustExecute(t, "hash-token", "--generate", "--cost", "4")

	var token, hash string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		switch {
		case strings.HasPrefix(line, "token: "):
			token = strings.TrimPrefix(line, "token: ")
		case strings.HasPrefix(line, "hash:  "):
			hash = strings.TrimPrefix(line, "hash:  ")
		}
	}
	if !strings.HasPrefix(token, "vm_") {
		t.Fatalf("token line missing: %s", out)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)); err != nil {
		t.Errorf("hash does not match generated token: %v", err)
	}

	if _, err := execute(t, "hash-token", "--generate", "extra"); err == nil {
		t.Error("expected error when combining --generate with a token")
	}
}

func TestAccountsAndUsage(t *testing.T) {
	cfg := writeTestConfig(t)

	out := mustExecute(t, "-c", cfg, "accounts", "create", "--name", "Coffee", "--policy", "never", "--limit", "4", "--tags", "food, daily")
	accID := createdID(t, out)

	out = mustExecute(t, "-c", cfg, "usage", "log", accID, "3", "--description", "latte")
	if !strings.Contains(out, "Used 3 / 4") || !strings.Contains(out, "75.0%") {
		t.Errorf("log output = %s", out)
	}
	evtID := createdID(t, out)

	out = mustExecute(t, "-c", cfg, "usage", "log", accID, "1")
	if !strings.Contains(out, "critical") {
		t.Errorf("expected critical warning, got %s", out)
	}

	out = mustExecute(t, "-c", cfg, "accounts", "list")
	if !strings.Contains(out, "Coffee") || !strings.Contains(out, accID) {
		t.Errorf("list output = %s", out)
	}

	mustExecute(t, "-c", cfg, "usage", "edit", evtID, "--amount", "1")
	out = mustExecute(t, "-c", cfg, "usage", "show", accID)
	if !strings.Contains(out, "Used:        2 / 4") || !strings.Contains(out, "latte") {
		t.Errorf("show output = %s", out)
	}

	mustExecute(t, "-c", cfg, "usage", "delete", evtID)
	out = mustExecute(t, "-c", cfg, "accounts", "show", accID)
	if !strings.Contains(out, "Used:        1 / 4") || !strings.Contains(out, "Tags:        food, daily") {
		t.Errorf("show output = %s", out)
	}

	out = mustExecute(t, "-c", cfg, "accounts", "update", accID, "--clear-limit", "--active=false")
	if !strings.Contains(out, "Used:        1 / -") || !strings.Contains(out, "Active:      false") {
		t.Errorf("update output = %s", out)
	}

	if _, err := execute(t, "-c", cfg, "usage", "log", accID, "1"); err == nil {
		t.Error("logging against an inactive account should fail")
	}

	out = mustExecute(t, "-c", cfg, "usage", "recompute")
	if !strings.Contains(out, "Recomputed 1 accounts.") {
		t.Errorf("recompute output = %s", out)
	}

	mustExecute(t, "-c", cfg, "accounts", "delete", accID)
	out = mustExecute(t, "-c", cfg, "accounts", "list")
	if !strings.Contains(out, "No accounts found.") {
		t.Errorf("list after delete = %s", out)
	}
}

func TestUsageRejections(t *testing.T) {
	cfg := writeTestConfig(t)
	accID := createdID(t, mustExecute(t, "-c", cfg, "accounts", "create", "--name", "Gym", "--policy", "weekly"))

	for _, args := range [][]string{
		{"usage", "log", accID, "0"},
		{"usage", "log", accID, "1.5"},
		{"usage", "log", "acc_missing", "1"},
		{"usage", "edit", "evt_missing"},
		{"accounts", "create", "--name", "Bad", "--policy", "hourly"},
		{"accounts", "update", accID, "--limit", "3", "--clear-limit"},
	} {
		if _, err := execute(t, append([]string{"-c", cfg}, args...)...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestOwnersAreIsolated(t *testing.T) {
	cfg := writeTestConfig(t)
	accID := createdID(t, mustExecute(t, "-c", cfg, "--owner", "alice", "accounts", "create", "--name", "Books"))

	out := mustExecute(t, "-c", cfg, "--owner", "bob", "accounts", "list")
	if strings.Contains(out, accID) {
		t.Errorf("bob sees alice's account: %s", out)
	}
	if _, err := execute(t, "-c", cfg, "--owner", "bob", "accounts", "show", accID); err == nil {
		t.Error("expected not found for another owner")
	}
}

func TestCalendar(t *testing.T) {
	cfg := writeTestConfig(t)

	out := mustExecute(t, "-c", cfg, "calendar", "--year", "2024", "--month", "2")
	if !strings.Contains(out, "February 2024 (UTC)") {
		t.Errorf("calendar header = %s", out)
	}
	// Feb 2024 starts on a Thursday, so the grid leads with Jan 28-31.
	if !strings.Contains(out, "[28]") || !strings.Contains(out, "29") {
		t.Errorf("calendar grid = %s", out)
	}

	if _, err := execute(t, "-c", cfg, "calendar", "--year", "2024", "--month", "13"); err == nil {
		t.Error("expected error for month 13")
	}

	out = mustExecute(t, "-c", cfg, "calendar", "day", "2024-02-14")
	if !strings.Contains(out, "No usage on 2024-02-14.") {
		t.Errorf("day output = %s", out)
	}
	if _, err := execute(t, "-c", cfg, "calendar", "day", "14/02/2024"); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestValidate(t *testing.T) {
	cfg := writeTestConfig(t)

	out := mustExecute(t, "-c", cfg, "validate", "--check-database")
	if !strings.Contains(out, "Configuration is valid.") || !strings.Contains(out, "Database writable") {
		t.Errorf("validate output = %s", out)
	}

	if _, err := execute(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"), "validate"); err == nil {
		t.Error("expected error for a missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(bad, []byte("auth:\n  mode: token\n"), 0644)
	if _, err := execute(t, "-c", bad, "validate"); err == nil {
		t.Error("token mode without tokens should not validate")
	}
}
