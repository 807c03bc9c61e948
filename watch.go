package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// configWatcher calls a function whenever the config file is written or
// replaced. The parent directory is watched since editors tend to replace
// files instead of writing them in place.
type configWatcher struct {
	path    string
	watcher *fsnotify.Watcher
}

func newConfigWatcher(path string) (*configWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("cannot create config watcher: %w", err)
	}

	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("cannot watch %s: %w", path, err)
	}

	return &configWatcher{path: path, watcher: watcher}, nil
}

func (w *configWatcher) run(ctx context.Context, reload func()) {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				log.Infof("config file %s changed (%s)", w.path, ev.Op)
				reload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("config watcher: %v", err)
		}
	}
}
