package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_InitialScanAndNewFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "old.txt"), []byte("TOTAL 1.00"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "skip.pdf"), []byte("%PDF"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan FileResult, 8)
	done := make(chan error, 1)
	r := NewRunner(&fakeProcessor{}, nil)
	go func() {
		done <- r.Watch(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 20 * time.Millisecond},
			func(fr FileResult) { got <- fr })
	}()

	next := func() FileResult {
		t.Helper()
		select {
		case fr := <-got:
			return fr
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for watch result")
			return FileResult{}
		}
	}

	first := next()
	assert.Equal(t, "old.txt", filepath.Base(first.Path))
	assert.NoError(t, first.Err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "new.txt"), []byte("TOTAL 2.00"), 0o644))
	second := next()
	assert.Equal(t, "new.txt", filepath.Base(second.Path))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatch_RenameProcessesNewNameOnly(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan FileResult, 8)
	done := make(chan error, 1)
	r := NewRunner(&fakeProcessor{}, nil)
	go func() {
		done <- r.Watch(ctx, WatchConfig{Roots: []string{root}, Debounce: 20 * time.Millisecond},
			func(fr FileResult) { got <- fr })
	}()
	// let the watcher register the root before writing
	time.Sleep(100 * time.Millisecond)

	draft := filepath.Join(root, "draft.txt")
	require.NoError(t, os.WriteFile(draft, []byte("TOTAL 1.00"), 0o644))
	select {
	case fr := <-got:
		assert.Equal(t, draft, fr.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for draft")
	}

	final := filepath.Join(root, "final.txt")
	require.NoError(t, os.Rename(draft, final))
	select {
	case fr := <-got:
		assert.Equal(t, final, fr.Path)
		assert.NoError(t, fr.Err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for renamed file")
	}

	select {
	case fr := <-got:
		t.Fatalf("unexpected result for %s (err %v)", fr.Path, fr.Err)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	require.NoError(t, <-done)
}

func TestWatch_NoRoots(t *testing.T) {
	err := NewRunner(&fakeProcessor{}, nil).Watch(context.Background(), WatchConfig{}, func(FileResult) {})
	assert.Error(t, err)
}
