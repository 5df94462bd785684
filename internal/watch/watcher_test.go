package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRun_calls_OnChange_for_watched_file(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "meta.json")
	other := filepath.Join(dir, "other.txt")
	if err := os.WriteFile(watched, []byte("{}"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Config{
			Paths:    []string{watched},
			Debounce: 50 * time.Millisecond,
			OnChange: func(changed []string) error {
				calls <- changed
				return nil
			},
		})
	}()

	// Give the watcher time to register
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(other, []byte("ignored"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(watched, []byte(`{"name": "x"}`), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}

	select {
	case changed := <-calls:
		if len(changed) != 1 || changed[0] != watched {
			t.Errorf("changed = %v, want [%s]", changed, watched)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("OnChange was not called")
	}

	// Rapid writes are coalesced into one call
	select {
	case changed := <-calls:
		t.Errorf("unexpected second call with %v", changed)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRun_keeps_watching_after_callback_error(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "script.js")
	if err := os.WriteFile(watched, []byte("a"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 4)
	go func() {
		_ = Run(ctx, Config{
			Paths:    []string{watched},
			Debounce: 20 * time.Millisecond,
			OnChange: func([]string) error {
				calls <- struct{}{}
				return errors.New("build failed")
			},
		})
	}()
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 2; i++ {
		if err := os.WriteFile(watched, []byte("b"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		select {
		case <-calls:
		case <-time.After(5 * time.Second):
			t.Fatalf("call %d did not happen", i+1)
		}
	}
}

func TestRun_fails_for_missing_directory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope", "file.js")

	err := Run(context.Background(), Config{Paths: []string{missing}})
	if err == nil {
		t.Error("expected error, got nil")
	}
}
