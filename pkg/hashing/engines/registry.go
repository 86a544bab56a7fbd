// Copyright 2025 The Sigstore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package hashengines

import (
	"fmt"
	"sort"
	"sync"

	"github.com/minchaudhary/digital-signature/pkg/hashing/digests"
)

// HashEngineFactory creates a fresh engine.
type HashEngineFactory func() (StreamingHashEngine, error)

// Registry maps digest algorithms to engine factories. It is safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[digests.Algorithm]HashEngineFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[digests.Algorithm]HashEngineFactory)}
}

// defaultRegistry backs the package-level functions. Engine packages
// register into it from init.
var defaultRegistry = NewRegistry()

// Register adds a factory for algorithm. Only algorithms of the closed
// digests set are accepted, each at most once.
func (r *Registry) Register(algorithm digests.Algorithm, factory HashEngineFactory) error {
	if !algorithm.Valid() {
		return fmt.Errorf("cannot register engine for unknown digest algorithm %q", algorithm)
	}
	if factory == nil {
		return fmt.Errorf("nil engine factory for %s", algorithm)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.factories[algorithm]; dup {
		return fmt.Errorf("engine for %s already registered", algorithm)
	}
	r.factories[algorithm] = factory
	return nil
}

// Create returns a new engine for algorithm. The engine must report the
// algorithm it was registered for.
func (r *Registry) Create(algorithm digests.Algorithm) (StreamingHashEngine, error) {
	r.mu.RLock()
	factory, ok := r.factories[algorithm]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no hash engine for %q (available: %v)", algorithm, r.Algorithms())
	}

	engine, err := factory()
	if err != nil {
		return nil, fmt.Errorf("creating %s engine: %w", algorithm, err)
	}
	if engine.Algorithm() != algorithm {
		return nil, fmt.Errorf("engine registered for %s computes %s", algorithm, engine.Algorithm())
	}
	return engine, nil
}

// Algorithms lists the registered algorithms in ascending digest size.
func (r *Registry) Algorithms() []digests.Algorithm {
	r.mu.RLock()
	defer r.mu.RUnlock()

	algs := make([]digests.Algorithm, 0, len(r.factories))
	for alg := range r.factories {
		algs = append(algs, alg)
	}
	sort.Slice(algs, func(i, j int) bool { return algs[i].Size() < algs[j].Size() })
	return algs
}

// Register adds a factory to the default registry.
func Register(algorithm digests.Algorithm, factory HashEngineFactory) error {
	return defaultRegistry.Register(algorithm, factory)
}

// MustRegister is Register for init functions; it panics on error.
func MustRegister(algorithm digests.Algorithm, factory HashEngineFactory) {
	if err := Register(algorithm, factory); err != nil {
		panic(err)
	}
}

// Create returns a new engine from the default registry.
func Create(algorithm digests.Algorithm) (StreamingHashEngine, error) {
	return defaultRegistry.Create(algorithm)
}

// SupportedAlgorithms lists the algorithms of the default registry.
func SupportedAlgorithms() []digests.Algorithm {
	return defaultRegistry.Algorithms()
}
