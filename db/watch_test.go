package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	nix "github.com/t7a/nixbase"
)

// waitFor reads events until one matches path, failing after a
// timeout.
func waitFor(t *testing.T, w *Watcher, path string) WatchEvent {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-w.Events:
			tassert(t, ok, "events closed")
			if ev.Path == path {
				return ev
			}
		case err := <-w.Errors:
			t.Fatalf("watch error: %v", err)
		case <-timeout:
			t.Fatalf("no event for %s", path)
		}
	}
}

func TestWatcher(t *testing.T) {
	// https://pkg.go.dev/github.com/fsnotify/fsnotify#readme-usage
	file := setup(t)
	w, err := NewWatcher(file)
	tassert(t, err == nil, "%v", err)
	defer w.Close()

	b := mkblock(t, file, "b1")
	ev := waitFor(t, w, filepath.Join("data", "b1"))
	tassert(t, ev.Op&fsnotify.Create > 0, "event %#v", ev)
	tassert(t, ev.Collection == "data", "event %#v", ev)

	// new directories are picked up as they appear
	_, err = b.CreateDataArray("v", "signal", nix.Double, []int{1})
	tassert(t, err == nil, "%v", err)
	ev = waitFor(t, w, filepath.Join("data", "b1", "data_arrays", "v"))
	tassert(t, ev.Collection == "data_arrays", "event %#v", ev)
	ev = waitFor(t, w, filepath.Join("data", "b1", "data_arrays", "v", attributesFile))
	tassert(t, ev.Collection == "data_arrays", "event %#v", ev)
}

func TestWatcherClose(t *testing.T) {
	file := setup(t)
	w, err := NewWatcher(file)
	tassert(t, err == nil, "%v", err)
	err = w.Close()
	tassert(t, err == nil, "%v", err)
	err = w.Close()
	tassert(t, err == nil, "second close: %v", err)
	select {
	case _, ok := <-w.Events:
		tassert(t, !ok, "event after close")
	case <-time.After(5 * time.Second):
		t.Fatal("events not closed")
	}
}
