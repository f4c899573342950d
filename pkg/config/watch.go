/*
Copyright 2023 The KusionStack Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Watcher reloads the configuration file into a Store whenever it changes on
// disk. A reload that fails to parse or validate keeps the previous
// configuration; only startup treats a bad document as fatal.
type Watcher struct {
	path  string
	store *Store
}

func NewWatcher(path string, store *Store) *Watcher {
	return &Watcher{path: path, store: store}
}

// Start runs the watch loop until ctx is cancelled. It implements
// manager.Runnable so it can be added to the controller manager.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create fsnotify watcher")
	}
	defer watcher.Close()

	// Watch the directory, not the file. Kubernetes mounts update config
	// files by swapping symlinks, which unlinks the watched inode.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return errors.Wrapf(err, "watch %s", filepath.Dir(w.path))
	}
	klog.Infof("watching config file %s for changes", w.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			klog.Warningf("config watcher error: %v", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return false
	}
	return event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create)
}

func (w *Watcher) reload() {
	config, err := Load(w.path)
	if err != nil {
		klog.Warningf("config reload rejected, keeping previous config: %v", err)
		return
	}
	w.store.Swap(config)
	klog.Infof("config reloaded, policy %q with %d tolerations, %d ignored namespaces",
		config.Policy.Name, len(config.Policy.Tolerations), len(config.IgnoredNamespaces))
}
