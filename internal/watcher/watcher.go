// Package watcher watches the config file and publishes debounced change
// events so the running UI can reload its settings.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/geosift/internal/log"
	"github.com/zjrosen/geosift/internal/pubsub"
)

// Change is the payload of every published event.
type Change struct {
	Path string
	Err  error
}

// Config holds watcher options.
type Config struct {
	Path     string
	Debounce time.Duration
}

// DefaultConfig watches path with a 250ms debounce.
func DefaultConfig(path string) Config {
	return Config{
		Path:     path,
		Debounce: 250 * time.Millisecond,
	}
}

// Watcher reports writes, atomic replaces and removals of one file.
type Watcher struct {
	fs       *fsnotify.Watcher
	path     string
	debounce time.Duration
	pub      pubsub.Publisher[Change]
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a watcher that publishes to pub.
func New(cfg Config, pub pubsub.Publisher[Change]) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fs:       fsw,
		path:     filepath.Clean(cfg.Path),
		debounce: cfg.Debounce,
		pub:      pub,
		done:     make(chan struct{}),
	}, nil
}

// Start watches the file's directory so editors that replace the file by
// rename are still seen.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.path)
	if err := w.fs.Add(dir); err != nil {
		return fmt.Errorf("watching directory %s: %w", dir, err)
	}

	go w.loop()
	log.Info(log.CatWatcher, "watching config", "path", w.path)
	return nil
}

// Stop ends the watch. Safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fs.Close()
	})
	return err
}

func (w *Watcher) loop() {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	var pending pubsub.EventType

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			typ, relevant := w.classify(event)
			if !relevant {
				continue
			}
			pending = typ
			timer.Reset(w.debounce)

		case <-timer.C:
			if pending == "" {
				continue
			}
			log.Debug(log.CatWatcher, "config change", "type", pending, "path", w.path)
			w.pub.Publish(pending, Change{Path: w.path})
			pending = ""

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "fsnotify error", err)
			w.pub.Publish(pubsub.ErrorEvent, Change{Path: w.path, Err: err})

		case <-w.done:
			return
		}
	}
}

// classify maps an fsnotify event on the watched file to an event type.
func (w *Watcher) classify(event fsnotify.Event) (pubsub.EventType, bool) {
	if filepath.Clean(event.Name) != w.path {
		return "", false
	}
	switch {
	case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
		return pubsub.ChangedEvent, true
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		return pubsub.RemovedEvent, true
	default:
		return "", false
	}
}
