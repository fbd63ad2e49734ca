package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/banker/pkg/banker/evaluate"
	"mercator-hq/banker/pkg/cli"
	"mercator-hq/banker/pkg/report"
)

// newTestCommand returns a command writing to a buffer, with the global
// config pointing at a missing file so defaults apply.
func newTestCommand(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	cfgFile = filepath.Join(t.TempDir(), "missing.yaml")
	verbose = false

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	cmd.SetContext(context.Background())
	return cmd, &buf
}

func resetRunFlags() {
	runFlags.policy = ""
	runFlags.format = "text"
	runFlags.sequence = ""
}

func resetCheckFlags() {
	checkFlags.strict = false
	checkFlags.format = "text"
	checkFlags.sequence = ""
}

// ============================================================================
// run
// ============================================================================

func TestRunScenario_Text(t *testing.T) {
	cmd, out := newTestCommand(t)
	resetRunFlags()

	if err := runScenario(cmd, []string{"testdata/classic.txt"}); err != nil {
		t.Fatalf("runScenario() returned error: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"Policy: canonical",
		"State is SAFE, sequence: P1 -> P3 -> P4 -> P0 -> P2",
		"granted, available A=2 B=3 C=0",
		"refused: insufficient_available (A)",
		"refused: would_be_unsafe",
		"Final available:",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, got)
		}
	}
}

func TestRunScenario_JSONAvailableOnly(t *testing.T) {
	cmd, out := newTestCommand(t)
	resetRunFlags()
	runFlags.format = "json"
	runFlags.policy = "available-only"

	if err := runScenario(cmd, []string{"testdata/classic.txt"}); err != nil {
		t.Fatalf("runScenario() returned error: %v", err)
	}

	var run report.Run
	if err := json.Unmarshal(out.Bytes(), &run); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out.String())
	}
	if run.Policy != evaluate.PolicyAvailableOnly {
		t.Errorf("Expected available_only policy, got %s", run.Policy)
	}
	if len(run.Decisions) != 3 {
		t.Fatalf("Expected 3 decisions, got %d", len(run.Decisions))
	}
	// Without the safety check the third request is granted.
	if d := run.Decisions[2].Decision; d == nil || d.Outcome != evaluate.OutcomeGranted {
		t.Errorf("Expected third request granted, got %+v", run.Decisions[2])
	}
}

func TestRunScenario_Errors(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		setup func()
	}{
		{"missing file", "testdata/nonexistent.txt", func() {}},
		{"bad policy", "testdata/classic.txt", func() { runFlags.policy = "optimistic" }},
		{"bad format", "testdata/classic.txt", func() { runFlags.format = "xml" }},
		{"bad sequence", "testdata/classic.txt", func() { runFlags.sequence = "1,x" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, _ := newTestCommand(t)
			resetRunFlags()
			tt.setup()

			if err := runScenario(cmd, []string{tt.file}); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestRunScenario_InvalidRequestReported(t *testing.T) {
	cmd, out := newTestCommand(t)
	resetRunFlags()

	path := filepath.Join(t.TempDir(), "bad.txt")
	content := "1 1\n0\n2\n1\n0: 1\n3: 1\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := runScenario(cmd, []string{path}); err != nil {
		t.Fatalf("runScenario() returned error: %v", err)
	}
	if !strings.Contains(out.String(), "error: ") {
		t.Errorf("Expected the out-of-range request to be reported, got:\n%s", out.String())
	}
}

func TestScanOrder(t *testing.T) {
	opts, err := scanOrder(" 4, 3,2 ,1,0 ")
	if err != nil || len(opts) != 1 {
		t.Errorf("scanOrder() = %v, %v", opts, err)
	}
	if opts, err := scanOrder(""); err != nil || opts != nil {
		t.Errorf("Expected no options for empty input, got %v %v", opts, err)
	}
}

// ============================================================================
// check
// ============================================================================

func TestCheckScenario(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		strict   bool
		wantCode int
		wantOut  string
	}{
		{"safe", "testdata/classic.txt", true, 0, "State is SAFE"},
		{"unsafe lenient", "testdata/unsafe.txt", false, 0, "State is UNSAFE"},
		{"unsafe strict", "testdata/unsafe.txt", true, exitUnsafe, "State is UNSAFE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, out := newTestCommand(t)
			resetCheckFlags()
			checkFlags.strict = tt.strict

			err := checkScenario(cmd, []string{tt.file})
			if code := cli.ExitCode(err); code != tt.wantCode {
				t.Errorf("Expected exit code %d, got %d (%v)", tt.wantCode, code, err)
			}
			if tt.wantCode == exitUnsafe && !errors.Is(err, cli.ErrUnsafe) {
				t.Errorf("Expected ErrUnsafe, got %v", err)
			}
			if !strings.Contains(out.String(), tt.wantOut) {
				t.Errorf("Expected %q in output, got %q", tt.wantOut, out.String())
			}
		})
	}
}

func TestCheckScenario_ScanOrder(t *testing.T) {
	cmd, out := newTestCommand(t)
	resetCheckFlags()
	checkFlags.sequence = "4,3,2,1,0"

	if err := checkScenario(cmd, []string{"testdata/classic.txt"}); err != nil {
		t.Fatalf("checkScenario() returned error: %v", err)
	}
	if !strings.Contains(out.String(), "sequence: P3") {
		t.Errorf("Expected P3 first under reversed order, got %q", out.String())
	}
}

// ============================================================================
// serve
// ============================================================================

func resetServeFlags() {
	serveFlags.listenAddress = ""
	serveFlags.scenario = ""
	serveFlags.policy = ""
	serveFlags.logLevel = "error"
	serveFlags.dryRun = false
}

func TestRunServe_DryRun(t *testing.T) {
	cmd, out := newTestCommand(t)
	resetServeFlags()
	serveFlags.scenario = "testdata/classic.txt"
	serveFlags.dryRun = true

	if err := runServe(cmd, nil); err != nil {
		t.Fatalf("runServe() returned error: %v", err)
	}
	if !strings.Contains(out.String(), "5 processes, 3 resources") {
		t.Errorf("Unexpected output %q", out.String())
	}
}

func TestRunServe_RequiresScenario(t *testing.T) {
	cmd, _ := newTestCommand(t)
	resetServeFlags()
	serveFlags.dryRun = true

	err := runServe(cmd, nil)
	var cfgErr *cli.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("Expected ConfigError, got %v", err)
	}
}

func TestRunServe_StopsOnCancel(t *testing.T) {
	cmd, _ := newTestCommand(t)
	resetServeFlags()

	scenarioPath := filepath.Join(t.TempDir(), "state.txt")
	data, err := os.ReadFile("testdata/classic.txt")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(scenarioPath, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfgFile = filepath.Join(t.TempDir(), "banker.yaml")
	cfg := `
scenario:
  path: ` + scenarioPath + `
  watch: true
server:
  listen_address: "127.0.0.1:0"
audit:
  schedule: "@every 1s"
`
	if err := os.WriteFile(cfgFile, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	cmd.SetContext(ctx)

	if err := runServe(cmd, nil); err != nil {
		t.Errorf("runServe() returned error: %v", err)
	}
}

// ============================================================================
// version
// ============================================================================

func TestVersionCommand(t *testing.T) {
	cmd, out := newTestCommand(t)
	versionCmd.Run(cmd, nil)

	if !strings.Contains(out.String(), "Banker "+Version) {
		t.Errorf("Unexpected version output %q", out.String())
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{"run": false, "check": false, "serve": false, "version": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("Expected %q command to be registered", name)
		}
	}
}
