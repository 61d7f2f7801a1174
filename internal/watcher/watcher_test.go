package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestWatcher_DebounceAndExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}

	var ingested []string
	var mu sync.Mutex
	onIngest := func(path string) {
		mu.Lock()
		ingested = append(ingested, path)
		mu.Unlock()
	}
	w := NewWatcher(dir, []string{".txt"}, true, onIngest, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	fPath := filepath.Join(sub, "f.txt")
	if err := os.WriteFile(fPath, []byte("hello"), 0600); err != nil {
		t.Fatal(err)
	}
	skipPath := filepath.Join(sub, "skip.md")
	if err := os.WriteFile(skipPath, []byte("hello"), 0600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(600 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(ingested) < 1 {
		t.Fatalf("expected at least one ingest callback, got %d", len(ingested))
	}
	for _, p := range ingested {
		if filepath.Base(p) == "skip.md" {
			t.Error("filtered extension should not trigger ingest")
		}
	}
}

func TestWatcher_CreatesMissingRoot(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "does-not-exist-yet")

	w := NewWatcher(root, nil, false, nil, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		t.Errorf("root should have been created: %v", err)
	}
}

func TestWatcher_StopIdempotent(t *testing.T) {
	w := NewWatcher(t.TempDir(), nil, false, nil, zap.NewNop())
	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	w.Stop()
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/b.txt", []string{".txt"}, true},
		{"/a/b.TXT", []string{".txt"}, true},
		{"/a/b.pdf", []string{"pdf", "docx"}, true},
		{"/a/b.md", []string{".txt"}, false},
		{"/a/b", nil, true},
		{"/a/b", []string{}, true},
		{"/a/b", []string{".txt"}, false},
	}
	for _, tt := range tests {
		got := matchExtension(tt.path, tt.extensions)
		if got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}
