package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNew_BadLogLevel(t *testing.T) {
	if _, err := New(Options{LogLevel: "chatty"}); err == nil {
		t.Fatal("New() expected error for a bad log level")
	}
}

func TestNew_BadConfig(t *testing.T) {
	path := writeTestFile(t, "kernos.toml", "[console]\nrows = -1\n")
	if _, err := New(Options{ConfigPath: path, LogLevel: "error"}); err == nil {
		t.Fatal("New() expected error for an invalid config")
	}
}

func TestRun_Headless(t *testing.T) {
	path := writeTestFile(t, "demo.yaml", "tasks:\n  - name: hello\n    lines: [\"hello from workload\"]\n")

	app, err := New(Options{WorkloadPath: path, Headless: true, LogLevel: "error"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Shutdown()

	if err := app.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	snap := app.Snapshot()
	if !strings.Contains(snap, "kernos console 25x80") {
		t.Errorf("snapshot missing banner:\n%s", snap)
	}
	if !strings.Contains(snap, "hello from workload") {
		t.Errorf("snapshot missing workload output:\n%s", snap)
	}
}

func TestRun_HeadlessNoWorkload(t *testing.T) {
	app, err := New(Options{Headless: true, LogLevel: "error"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Shutdown()

	if err := app.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if snap := app.Snapshot(); !strings.Contains(snap, "kernos console") {
		t.Errorf("snapshot missing banner:\n%s", snap)
	}
}

func TestRun_ConfiguredGrid(t *testing.T) {
	path := writeTestFile(t, "kernos.toml", "[console]\nrows = 10\ncols = 32\n")

	app, err := New(Options{ConfigPath: path, Headless: true, LogLevel: "error"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Shutdown()

	if err := app.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if snap := app.Snapshot(); !strings.Contains(snap, "kernos console 10x32") {
		t.Errorf("snapshot missing sized banner:\n%s", snap)
	}
}

func TestRun_MissingWorkloadFile(t *testing.T) {
	app, err := New(Options{
		WorkloadPath: filepath.Join(t.TempDir(), "nope.yaml"),
		Headless:     true,
		LogLevel:     "error",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Shutdown()

	if err := app.Run(); err == nil {
		t.Fatal("Run() expected error for a missing workload file")
	}
}

func TestShutdown_Idempotent(t *testing.T) {
	app, err := New(Options{Headless: true, LogLevel: "error"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	app.Shutdown()
	app.Shutdown()
}

func TestInitError(t *testing.T) {
	base := errors.New("boom")
	e := &InitError{Component: "console", Err: base}
	if got := e.Error(); got != "initializing console: boom" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(e, base) {
		t.Error("errors.Is() did not reach the wrapped error")
	}
}
