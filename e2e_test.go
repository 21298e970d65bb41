//go:build e2e

package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var nodecanvasBin string

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "nodecanvas-e2e-*")
	if err != nil {
		panic("failed to create temp dir: " + err.Error())
	}
	defer os.RemoveAll(tmp)

	nodecanvasBin = filepath.Join(tmp, "nodecanvas")
	build := exec.Command("go", "build", "-ldflags", "-X github.com/msalah0e/nodecanvas/cmd.version=0.3.0-test", "-o", nodecanvasBin, ".")
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		panic("failed to build nodecanvas: " + err.Error())
	}

	os.Exit(m.Run())
}

// runNodecanvas executes the binary with an isolated HOME directory.
func runNodecanvas(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	cmd := exec.Command(nodecanvasBin, args...)
	home := t.TempDir()
	cmd.Env = append(os.Environ(),
		"HOME="+home,
		"XDG_CONFIG_HOME="+filepath.Join(home, ".config"),
		"NO_COLOR=1",
	)

	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	exitCode = 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("failed to run nodecanvas %v: %v", args, err)
		}
	}
	return outBuf.String(), errBuf.String(), exitCode
}

// --- Core CLI ---

func TestE2E_Version(t *testing.T) {
	out, _, code := runNodecanvas(t, "--version")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "0.3.0") {
		t.Errorf("expected version output to contain '0.3.0', got %q", out)
	}
}

func TestE2E_Help(t *testing.T) {
	out, _, code := runNodecanvas(t, "--help")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	for _, want := range []string{"Available Commands", "replay", "symbols"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected help to contain %q, got %q", want, out)
		}
	}
}

func TestE2E_CompletionZsh(t *testing.T) {
	out, _, code := runNodecanvas(t, "completion", "zsh")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "nodecanvas") {
		t.Error("expected zsh completion script")
	}
}

// --- Catalog ---

func TestE2E_SymbolsBrowse(t *testing.T) {
	out, _, code := runNodecanvas(t, "symbols")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "Blur") {
		t.Errorf("expected catalog listing to contain Blur, got %q", out)
	}
}

func TestE2E_SymbolsSearchFiltered(t *testing.T) {
	out, _, code := runNodecanvas(t, "symbols", "--output", "float", "sine")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "math.Sine") {
		t.Errorf("expected math.Sine in results, got %q", out)
	}
	if strings.Contains(out, "fx.Blur") {
		t.Errorf("texture operators must be filtered out, got %q", out)
	}
}

func TestE2E_SymbolInfo(t *testing.T) {
	out, _, code := runNodecanvas(t, "symbol", "values.FloatValue")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "Value for: float") {
		t.Errorf("expected value_for line, got %q", out)
	}
}

func TestE2E_SymbolUnknown(t *testing.T) {
	_, stderr, code := runNodecanvas(t, "symbol", "nope.Nothing")
	if code == 0 {
		t.Fatal("expected non-zero exit for unknown symbol")
	}
	if !strings.Contains(stderr, "unknown symbol") {
		t.Errorf("expected unknown symbol error, got %q", stderr)
	}
}

// --- Config ---

func TestE2E_ConfigInitAndShow(t *testing.T) {
	_, _, code := runNodecanvas(t, "config", "init")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	out, _, code := runNodecanvas(t, "config", "show", "--toml")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "grid_size") {
		t.Errorf("expected TOML output, got %q", out)
	}
}

func TestE2E_ConfigInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[canvas]\ngrid_size = 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, stderr, code := runNodecanvas(t, "--config", path, "config", "show")
	if code == 0 {
		t.Fatal("expected non-zero exit for invalid config")
	}
	if !strings.Contains(stderr, "grid_size") && !strings.Contains(stderr, "gridsize") {
		t.Errorf("expected validation message, got %q", stderr)
	}
}

// --- Replay ---

func TestE2E_ReplayScripts(t *testing.T) {
	scripts, err := filepath.Glob(filepath.Join("scripts", "*.yaml"))
	if err != nil || len(scripts) == 0 {
		t.Fatalf("no scripts found: %v", err)
	}
	args := append([]string{"replay", "--project", t.TempDir()}, scripts...)
	out, stderr, code := runNodecanvas(t, args...)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d\nstdout: %s\nstderr: %s", code, out, stderr)
	}
	if !strings.Contains(out, "scripts passed") {
		t.Errorf("expected summary line, got %q", out)
	}
}

func TestE2E_ReplayMismatchFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fail.yaml")
	body := "name: fail\nframes:\n  - keys: [tab]\n    expect: {state: default}\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	out, _, code := runNodecanvas(t, "replay", "--project", t.TempDir(), path)
	if code == 0 {
		t.Fatal("expected non-zero exit for failed expectation")
	}
	if !strings.Contains(out, "placeholder") {
		t.Errorf("expected mismatch table, got %q", out)
	}
}

func TestE2E_ReplayMissingScript(t *testing.T) {
	_, _, code := runNodecanvas(t, "replay", "does-not-exist.yaml")
	if code == 0 {
		t.Fatal("expected non-zero exit for missing script")
	}
}
