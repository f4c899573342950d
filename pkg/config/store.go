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
	"sync/atomic"
)

// Store holds the active configuration. Readers get an immutable snapshot;
// reconfiguration swaps the whole document atomically, so concurrent
// admission requests need no locking.
type Store struct {
	value atomic.Value
}

func NewStore(config *Config) *Store {
	store := &Store{}
	store.value.Store(config)
	return store
}

// Get returns the current configuration snapshot. The returned value must be
// treated as read-only.
func (s *Store) Get() *Config {
	return s.value.Load().(*Config)
}

// Swap replaces the active configuration. In-flight requests keep the
// snapshot they already read.
func (s *Store) Swap(config *Config) {
	s.value.Store(config)
}
