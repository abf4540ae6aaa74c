package dev

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func startWatcher(t *testing.T, dir string) (*Watcher, <-chan []Change) {
	t.Helper()
	watcher := NewWatcher(WatcherConfig{
		Paths:    []string{dir},
		Debounce: 50 * time.Millisecond,
	})

	changes := make(chan []Change, 10)
	watcher.OnChange(func(batch []Change) {
		changes <- batch
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go watcher.Start(ctx)

	select {
	case <-watcher.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for watcher")
	}
	return watcher, changes
}

func waitFor(t *testing.T, changes <-chan []Change, path string) Change {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case batch := <-changes:
			for _, c := range batch {
				if c.Path == path {
					return c
				}
			}
		case <-deadline:
			t.Fatalf("Timeout waiting for change to %s", path)
			return Change{}
		}
	}
}

func TestWatcher_Write(t *testing.T) {
	tmpDir := t.TempDir()

	testFile := filepath.Join(tmpDir, "posts.json")
	if err := os.WriteFile(testFile, []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}

	watcher, changes := startWatcher(t, tmpDir)

	if err := os.WriteFile(testFile, []byte(`[{"slug":"a"}]`), 0644); err != nil {
		t.Fatal(err)
	}

	change := waitFor(t, changes, testFile)
	if change.Op != OpWrite {
		t.Errorf("Expected write, got %v", change.Op)
	}

	watcher.Stop()
}

func TestWatcher_NewFileInNewDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	_, changes := startWatcher(t, tmpDir)

	dir := filepath.Join(tmpDir, "blog")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if c := waitFor(t, changes, dir); c.Op != OpCreate {
		t.Errorf("Expected create for directory, got %v", c.Op)
	}

	// Give the watcher a moment to add the new directory.
	time.Sleep(100 * time.Millisecond)

	newFile := filepath.Join(dir, "[slug].tsx")
	if err := os.WriteFile(newFile, []byte("export default 1"), 0644); err != nil {
		t.Fatal(err)
	}

	// Create followed by write in one batch stays a create.
	if c := waitFor(t, changes, newFile); c.Op != OpCreate {
		t.Errorf("Expected create, got %v", c.Op)
	}
}

func TestWatcher_Remove(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "about.tsx")
	if err := os.WriteFile(testFile, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	_, changes := startWatcher(t, tmpDir)

	if err := os.Remove(testFile); err != nil {
		t.Fatal(err)
	}
	if c := waitFor(t, changes, testFile); c.Op != OpRemove {
		t.Errorf("Expected remove, got %v", c.Op)
	}
}

func TestWatcher_Ignore(t *testing.T) {
	tmpDir := t.TempDir()

	watcher := NewWatcher(WatcherConfig{
		Paths:  []string{tmpDir},
		Ignore: []string{"*.stories.tsx", "vendor"},
	})

	// Test ignore patterns
	if !watcher.shouldIgnore(filepath.Join(tmpDir, "button.stories.tsx")) {
		t.Error("Should ignore *.stories.tsx files")
	}
	if !watcher.shouldIgnore(filepath.Join(tmpDir, "vendor", "lib.go")) {
		t.Error("Should ignore vendor directory")
	}
	if watcher.shouldIgnore(filepath.Join(tmpDir, "index.tsx")) {
		t.Error("Should not ignore index.tsx")
	}
}

func TestWatcher_IgnoreSegments(t *testing.T) {
	watcher := NewWatcher(WatcherConfig{
		Paths:  []string{"."},
		Ignore: []string{"tmp", "app/generated"},
	})

	if !watcher.shouldIgnore(filepath.Join("foo", "tmp", "bar.go")) {
		t.Error("Should ignore tmp directory segment")
	}
	if watcher.shouldIgnore(filepath.Join("foo", "attempt.go")) {
		t.Error("Should not ignore substring match")
	}
	if !watcher.shouldIgnore(filepath.Join("site", "app", "generated", "x.go")) {
		t.Error("Should ignore multi-segment pattern")
	}
}

func TestWatcher_IsRunning(t *testing.T) {
	watcher := NewWatcher(WatcherConfig{
		Paths: []string{t.TempDir()},
	})

	if watcher.IsRunning() {
		t.Error("Watcher should not be running initially")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Start(ctx) }()
	<-watcher.Ready()

	if !watcher.IsRunning() {
		t.Error("Watcher should be running")
	}
	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("Start() = %v, want context.Canceled", err)
	}
	if watcher.IsRunning() {
		t.Error("Watcher should have stopped")
	}
}

func TestOpString(t *testing.T) {
	tests := map[Op]string{
		OpCreate: "create",
		OpWrite:  "write",
		OpRemove: "remove",
		OpRename: "rename",
		Op(42):   "unknown",
	}
	for op, want := range tests {
		if got := op.String(); got != want {
			t.Errorf("Op(%d).String() = %q, want %q", op, got, want)
		}
	}
	if OpWrite.Structural() {
		t.Error("write should not be structural")
	}
}

func TestReloadServer_Broadcast(t *testing.T) {
	rs := NewReloadServer(nil)
	if rs.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", rs.ClientCount())
	}

	srv := httptest.NewServer(http.HandlerFunc(rs.HandleWebSocket))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for rs.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	rs.NotifyData([]string{"/blog/a", "/blog/b"}, "/site/content/posts.json")
	rs.NotifyRoutes(3)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg ReloadMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if msg.Type != ReloadTypeData || len(msg.RoutePaths) != 2 || msg.File != "/site/content/posts.json" {
		t.Errorf("msg = %+v", msg)
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if msg.Type != ReloadTypeRoutes || msg.Generation != 3 {
		t.Errorf("msg = %+v", msg)
	}

	rs.Close()
	if rs.ClientCount() != 0 {
		t.Errorf("ClientCount() after Close = %d, want 0", rs.ClientCount())
	}
}

func TestReloadMessage_JSON(t *testing.T) {
	data, err := json.Marshal(ReloadMessage{Type: ReloadTypeError, Error: "boom"})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"type":"error","error":"boom"}` {
		t.Errorf("json = %s", data)
	}
}

func TestDevClientScript(t *testing.T) {
	for _, want := range []string{"WebSocket", ReloadPath, "location.reload", "loader-data-update", "routes-rebuilt"} {
		if !strings.Contains(DevClientScript, want) {
			t.Errorf("DevClientScript should contain %q", want)
		}
	}
}

func TestReloadServer_ReplaysActiveError(t *testing.T) {
	rs := NewReloadServer(nil)
	defer rs.Close()
	rs.NotifyError("duplicate page at /blog/:")

	srv := httptest.NewServer(http.HandlerFunc(rs.HandleWebSocket))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg ReloadMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if msg.Type != ReloadTypeError || msg.Error != "duplicate page at /blog/:" {
		t.Errorf("msg = %+v, want the active error", msg)
	}
}
