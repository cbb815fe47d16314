package db

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	. "github.com/stevegt/goadapt"
	log "github.com/sirupsen/logrus"
)

// WatchEvent reports one change below a file's root.
type WatchEvent struct {
	Op fsnotify.Op
	// Path is relative to the file root.
	Path string
	// Collection is the innermost collection directory the change
	// happened in, e.g. "data_arrays" or "properties".
	Collection string
}

var collectionNames = map[string]bool{
	"data":        true,
	"metadata":    true,
	"sources":     true,
	"data_arrays": true,
	"tags":        true,
	"multi_tags":  true,
	"sections":    true,
	"properties":  true,
	"dimensions":  true,
	"features":    true,
	"references":  true,
	"groups":      true,
}

// Watcher follows every directory of a file tree, picking up new
// directories as they are created.  Staging entries are not reported;
// other entries may be reported more than once.
type Watcher struct {
	Events chan WatchEvent
	Errors chan error
	root   string
	fw     *fsnotify.Watcher
	done   chan struct{}
	once   sync.Once
}

func NewWatcher(file *File) (w *Watcher, err error) {
	defer Return(&err)
	fw, err := fsnotify.NewWatcher()
	Ck(err)
	w = &Watcher{
		Events: make(chan WatchEvent),
		Errors: make(chan error, 16),
		root:   file.Location(),
		fw:     fw,
		done:   make(chan struct{}),
	}
	_, err = w.addTree(w.root)
	if err != nil {
		fw.Close()
		return nil, err
	}
	go w.run()
	return
}

// addTree watches top and every directory below it.  It returns the
// entries found below top, which may have appeared before the watch
// on their parent was in place.
func (w *Watcher) addTree(top string) (found []string, err error) {
	err = filepath.Walk(top, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if path != top {
			if strings.HasPrefix(info.Name(), ".") {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			found = append(found, path)
		}
		if !info.IsDir() {
			return nil
		}
		log.Debugf("watching %s", path)
		return w.fw.Add(path)
	})
	return
}

func (w *Watcher) event(ev fsnotify.Event) (we WatchEvent, ok bool) {
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return
	}
	parts := strings.Split(rel, string(filepath.Separator))
	for _, part := range parts {
		if strings.HasPrefix(part, ".") {
			return
		}
	}
	we = WatchEvent{Op: ev.Op, Path: rel}
	for i := len(parts) - 2; i >= 0; i-- {
		if collectionNames[parts[i]] {
			we.Collection = parts[i]
			break
		}
	}
	return we, true
}

// send reports ev unless it names a staging entry.  It returns false
// once the watcher is closed.
func (w *Watcher) send(ev fsnotify.Event) bool {
	we, ok := w.event(ev)
	if !ok {
		return true
	}
	select {
	case w.Events <- we:
		return true
	case <-w.done:
		return false
	}
}

func (w *Watcher) run() {
	defer close(w.Events)
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			var found []string
			if ev.Op&fsnotify.Create != 0 {
				info, err := os.Lstat(ev.Name)
				if err == nil && info.IsDir() {
					found, err = w.addTree(ev.Name)
					if err != nil {
						w.report(err)
					}
				}
			}
			if !w.send(ev) {
				return
			}
			// entries created before their directory was watched
			for _, path := range found {
				if !w.send(fsnotify.Event{Name: path, Op: fsnotify.Create}) {
					return
				}
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.report(err)
		case <-w.done:
			return
		}
	}
}

// report never blocks the event loop; errors nobody collects are
// only logged.
func (w *Watcher) report(err error) {
	select {
	case w.Errors <- err:
	default:
		log.Debugf("watcher error dropped: %v", err)
	}
}

// Close stops the watcher; Events is closed once the reader loop has
// exited.
// Close stops the watcher.  Calling it again is a no-op.
func (w *Watcher) Close() (err error) {
	w.once.Do(func() {
		close(w.done)
		err = w.fw.Close()
	})
	return
}
