package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{"name=Figure A", "notes=a,b=c", "p80="})
	if err != nil {
		t.Fatal(err)
	}
	if got["name"] != "Figure A" || got["notes"] != "a,b=c" || got["p80"] != "" {
		t.Errorf("parseAssignments = %v", got)
	}
	if _, err := parseAssignments([]string{"novalue"}); err == nil {
		t.Error("missing '=' accepted")
	}
}

func TestPromptMember(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"valid", "1234\n", "1234", nil},
		{"retry until valid", "12\nabcd\n0912345678\n", "0912345678", nil},
		{"blank cancels", "\n", "", errCancelled},
		{"eof cancels", "", "", errCancelled},
		{"invalid then eof", "12", "", errCancelled},
		{"valid without newline", "56789", "56789", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := promptMember(strings.NewReader(tt.input), &out)
			if !errors.Is(err, tt.wantErr) || got != tt.want {
				t.Errorf("promptMember = %q, %v; want %q, %v", got, err, tt.want, tt.wantErr)
			}
		})
	}
}

func TestMemberIDFallsBackToPrompt(t *testing.T) {
	tests := []struct {
		name    string
		given   string
		input   string
		want    string
		wantErr error
	}{
		{"valid flag", "1234", "", "1234", nil},
		{"invalid flag prompts", "12", "56789\n", "56789", nil},
		{"invalid flag then cancel", "abc", "\n", "", errCancelled},
		{"missing flag prompts", "", "0912345678\n", "0912345678", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := memberID(tt.given, strings.NewReader(tt.input), &out)
			if !errors.Is(err, tt.wantErr) || got != tt.want {
				t.Errorf("memberID(%q) = %q, %v; want %q, %v", tt.given, got, err, tt.want, tt.wantErr)
			}
		})
	}
}

func run(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("pos %v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestShiftCheckoutClose(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cfgYAML := "data_dir: " + filepath.Join(dir, "data") + "\n" +
		"session_file: " + filepath.Join(dir, "session.json") + "\n" +
		"log_file: " + filepath.Join(dir, "pos.log") + "\n"
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0644); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"POS_DATA_DIR", "POS_SESSION_FILE", "POS_LOG_FILE", "POS_LOG_LEVEL", "POS_TIME_ZONE"} {
		t.Setenv(k, "")
	}
	global := []string{"--config", cfgPath, "--env-file", filepath.Join(dir, "missing.env")}
	cli := func(stdin string, args ...string) string {
		return run(t, stdin, append(append([]string{}, global...), args...)...)
	}

	cli("", "shift", "start", "--branch", "Main", "--staff", "Amy", "--cash", "1000")
	cli("", "inventory", "add", "--set", "name=Figure A", "--set", "cost=700")

	out := cli("", "inventory", "list")
	if !strings.Contains(out, "Figure A") || !strings.Contains(out, "840") {
		t.Errorf("inventory list:\n%s", out)
	}

	out = cli("", "checkout", "0", "--big", "1", "--small", "10", "--cash", "1100", "--member", "1234")
	if !strings.Contains(out, "Checkout complete") || !strings.Contains(out, "total 1100") {
		t.Fatalf("checkout:\n%s", out)
	}

	out = cli("", "logs", "list", "--member", "1234")
	if !strings.Contains(out, "1 transaction(s), due 1100") {
		t.Errorf("logs list:\n%s", out)
	}
	out = cli("", "receive", "list")
	if !strings.Contains(out, "1 record(s)") {
		t.Errorf("receive list:\n%s", out)
	}

	out = cli("", "shift", "close")
	if !strings.Contains(out, "Expected drawer: 2100") {
		t.Errorf("shift close:\n%s", out)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "data", "closing", "logs_*.csv"))
	if len(matches) != 1 {
		t.Errorf("closing reports = %v", matches)
	}

	out = cli("", "shift", "show")
	if !strings.Contains(out, "not started") || !strings.Contains(out, "Main") {
		t.Errorf("shift show after close:\n%s", out)
	}
}
