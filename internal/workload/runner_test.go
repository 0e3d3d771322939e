package workload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/dshills/kernos/internal/console"
	"github.com/dshills/kernos/internal/console/backend"
	"github.com/dshills/kernos/internal/task"
)

func newTestRunner(t *testing.T) (*Runner, *backend.Memory, *test.Hook) {
	t.Helper()
	m := backend.NewMemory(8, 40)
	term, err := console.New(m, console.Options{})
	if err != nil {
		t.Fatalf("console.New() error = %v", err)
	}
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	r, err := NewRunner(task.NewTable(), term, log)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	return r, m, hook
}

func reapAll(t *testing.T, r *Runner) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.ReapAll(ctx); err != nil {
		t.Fatalf("ReapAll() error = %v", err)
	}
	r.Wait()
}

func TestRunner_SpawnAndReap(t *testing.T) {
	r, m, hook := newTestRunner(t)

	f := &File{Tasks: []Spec{
		{Name: "alpha", Lines: []string{"alpha ready"}},
		{Name: "beta", Lines: []string{"beta ready"}, Exit: 5},
	}}
	if err := r.SpawnAll(f); err != nil {
		t.Fatalf("SpawnAll() error = %v", err)
	}
	reapAll(t, r)

	screen := m.Snapshot()
	for _, want := range []string{"alpha ready", "beta ready"} {
		if !strings.Contains(screen, want) {
			t.Errorf("console missing %q:\n%s", want, screen)
		}
	}

	byName := map[string]int{}
	for _, e := range hook.AllEntries() {
		if e.Message != "reaped workload task" {
			continue
		}
		name, _ := e.Data["name"].(string)
		status, _ := e.Data["status"].(int)
		byName[name] = status
	}
	if len(byName) != 2 || byName["alpha"] != 0 || byName["beta"] != 5 {
		t.Errorf("reap log = %v, want alpha:0 beta:5", byName)
	}

	// Only the root is left in the table.
	if got := r.table.Len(); got != 1 {
		t.Errorf("table len = %d after reaping, want 1", got)
	}
	if kids := r.table.Children(r.Root().ID()); len(kids) != 0 {
		t.Errorf("root children = %v after reaping, want none", kids)
	}
}

func TestRunner_SpawnGroups(t *testing.T) {
	r, _, _ := newTestRunner(t)

	inherit, err := r.Spawn(Spec{Name: "a"})
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	if inherit.Pgid() != r.Root().Pgid() {
		t.Errorf("pgid = %d, want inherited %d", inherit.Pgid(), r.Root().Pgid())
	}

	grouped, err := r.Spawn(Spec{Name: "b", Group: 7})
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	if grouped.Pgid() != 7 {
		t.Errorf("pgid = %d, want 7", grouped.Pgid())
	}

	reapAll(t, r)
}

func TestRunner_ReapAllHonorsContext(t *testing.T) {
	r, _, _ := newTestRunner(t)

	f := &File{Tasks: []Spec{
		{Name: "slow", Lines: []string{"still going"}, Delay: Duration(2 * time.Second)},
	}}
	if err := r.SpawnAll(f); err != nil {
		t.Fatalf("SpawnAll() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := r.ReapAll(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("ReapAll() error = %v, want deadline exceeded", err)
	}
}

func TestRunner_ReloadSpawnsOnlyAppended(t *testing.T) {
	r, _, _ := newTestRunner(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "demo.yaml")
	two := "tasks:\n  - name: first\n  - name: second\n"
	if err := os.WriteFile(path, []byte(two), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := r.SpawnAll(f); err != nil {
		t.Fatalf("SpawnAll() error = %v", err)
	}
	if got := r.table.Len(); got != 3 {
		t.Fatalf("table len = %d after SpawnAll, want 3", got)
	}

	// Same content again: nothing new to spawn.
	if err := r.reload(path); err != nil {
		t.Fatalf("reload() error = %v", err)
	}
	if got := r.table.Len(); got != 3 {
		t.Errorf("table len = %d after no-op reload, want 3", got)
	}

	// One appended spec: only it is spawned.
	three := two + "  - name: third\n"
	if err := os.WriteFile(path, []byte(three), 0644); err != nil {
		t.Fatal(err)
	}
	if err := r.reload(path); err != nil {
		t.Fatalf("reload() error = %v", err)
	}
	if got := r.table.Len(); got != 4 {
		t.Errorf("table len = %d after appending reload, want 4", got)
	}

	// A shrunken file spawns nothing and keeps the high-water mark.
	if err := os.WriteFile(path, []byte("tasks:\n  - name: first\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := r.reload(path); err != nil {
		t.Fatalf("reload() error = %v", err)
	}
	if got := r.table.Len(); got != 4 {
		t.Errorf("table len = %d after shrinking reload, want 4", got)
	}
	r.mu.Lock()
	loaded := r.loaded
	r.mu.Unlock()
	if loaded != 3 {
		t.Errorf("loaded = %d, want 3", loaded)
	}

	reapAll(t, r)
}

// TestRunner_ReloadRetriesAfterSpawnFailure points the runner at a reaped
// root so spawning fails, then restores it. A reload that could not spawn
// a spec must leave the mark where it was, so the next reload picks the
// spec up instead of skipping it forever.
func TestRunner_ReloadRetriesAfterSpawnFailure(t *testing.T) {
	r, _, _ := newTestRunner(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "demo.yaml")
	if err := os.WriteFile(path, []byte("tasks:\n  - name: first\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := r.reload(path); err != nil {
		t.Fatalf("reload() error = %v", err)
	}

	// Reaping a child removes it from the arena; tasks created under it
	// fail with ErrNoTask.
	dead, err := r.table.Create(r.Root().ID(), 0)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	r.table.Exit(dead, 0)
	var status task.StatusVar
	if _, err := r.table.Waitpid(r.Root(), dead.ID(), &status, 0); err != nil {
		t.Fatalf("Waitpid() error = %v", err)
	}
	realRoot := r.root
	r.root = dead

	appended := "tasks:\n  - name: first\n  - name: second\n  - name: third\n"
	if err := os.WriteFile(path, []byte(appended), 0644); err != nil {
		t.Fatal(err)
	}
	if err := r.reload(path); !errors.Is(err, task.ErrNoTask) {
		t.Fatalf("reload() error = %v, want ErrNoTask", err)
	}
	r.mu.Lock()
	loaded := r.loaded
	r.mu.Unlock()
	if loaded != 1 {
		t.Errorf("loaded = %d after failed reload, want 1", loaded)
	}

	// With the root back, the same file supplies the specs the failed
	// reload left behind.
	r.root = realRoot
	if err := r.reload(path); err != nil {
		t.Fatalf("reload() error = %v", err)
	}
	r.mu.Lock()
	loaded = r.loaded
	r.mu.Unlock()
	if loaded != 3 {
		t.Errorf("loaded = %d after retry, want 3", loaded)
	}
	if got := r.table.Len(); got != 4 {
		t.Errorf("table len = %d, want root plus three tasks", got)
	}

	reapAll(t, r)
}

func TestRunner_Watch(t *testing.T) {
	r, _, _ := newTestRunner(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "demo.yaml")
	if err := os.WriteFile(path, []byte("tasks:\n  - name: first\n"), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := r.SpawnAll(f); err != nil {
		t.Fatalf("SpawnAll() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx, path) }()

	// Rewrite until the watcher picks one write up; reload is idempotent
	// for specs it has already seen, so retries cannot double-spawn.
	appended := "tasks:\n  - name: first\n  - name: second\n    lines: [\"hi\"]\n"
	deadline := time.Now().Add(2 * time.Second)
	for r.table.Len() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("table len = %d, watcher never spawned the appended spec", r.table.Len())
		}
		if err := os.WriteFile(path, []byte(appended), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Watch() returned %v, want context canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch() did not return after cancel")
	}

	reapAll(t, r)
}
