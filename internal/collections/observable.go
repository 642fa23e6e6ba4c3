// Package collections provides the synchronized observable map backing the
// top-of-book caches.
package collections

import (
	"sync"

	"github.com/yanun0323/logs"
)

// Token identifies a subscription for later removal.
type Token uint64

// Listener receives the key and value involved in a map mutation. For set
// events the value is the just-written value; for remove events it is the
// value that was removed.
//
// Listeners run inside the mutation call. A listener may read the map and
// will observe the mutation it is being notified about, but it must not
// mutate the same map: Set/Remove from inside a listener deadlocks.
type Listener[K comparable, V any] func(key K, value V)

// ObservableMap is a key-value store that notifies subscribers synchronously
// on every Set and Remove. Safe for concurrent use from multiple goroutines.
//
// Two locks keep write+notify atomic with respect to other mutators while
// still allowing listeners to re-read the map: opMu serializes mutations and
// subscription changes, stateMu guards the backing map for reads.
type ObservableMap[K comparable, V any] struct {
	opMu    sync.Mutex
	stateMu sync.RWMutex

	entries         map[K]V
	nextToken       Token
	setListeners    map[Token]Listener[K, V]
	removeListeners map[Token]Listener[K, V]
}

// NewObservableMap allocates an empty observable map.
func NewObservableMap[K comparable, V any]() *ObservableMap[K, V] {
	return &ObservableMap[K, V]{
		entries:         make(map[K]V),
		setListeners:    make(map[Token]Listener[K, V]),
		removeListeners: make(map[Token]Listener[K, V]),
	}
}

// Set stores value under key, unconditionally overwriting any prior value,
// and invokes every set listener with (key, value) before returning.
func (m *ObservableMap[K, V]) Set(key K, value V) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.stateMu.Lock()
	m.entries[key] = value
	m.stateMu.Unlock()

	for _, listener := range m.setListeners {
		invoke(listener, key, value)
	}
}

// Get returns the value stored under key.
func (m *ObservableMap[K, V]) Get(key K) (V, bool) {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	value, ok := m.entries[key]
	return value, ok
}

// Remove deletes the entry under key if present and invokes every remove
// listener with (key, previousValue) before returning.
func (m *ObservableMap[K, V]) Remove(key K) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.stateMu.Lock()
	previous, ok := m.entries[key]
	if ok {
		delete(m.entries, key)
	}
	m.stateMu.Unlock()

	if !ok {
		return
	}

	for _, listener := range m.removeListeners {
		invoke(listener, key, previous)
	}
}

// SubscribeSet registers a listener for set events and returns its token.
func (m *ObservableMap[K, V]) SubscribeSet(listener Listener[K, V]) Token {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.nextToken++
	m.setListeners[m.nextToken] = listener
	return m.nextToken
}

// SubscribeRemove registers a listener for remove events and returns its token.
func (m *ObservableMap[K, V]) SubscribeRemove(listener Listener[K, V]) Token {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.nextToken++
	m.removeListeners[m.nextToken] = listener
	return m.nextToken
}

// Unsubscribe drops the subscription for token. Once it returns the listener
// will not be invoked again.
func (m *ObservableMap[K, V]) Unsubscribe(token Token) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	delete(m.setListeners, token)
	delete(m.removeListeners, token)
}

// Len returns the number of stored entries.
func (m *ObservableMap[K, V]) Len() int {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	return len(m.entries)
}

// Keys returns the stored keys in unspecified order.
func (m *ObservableMap[K, V]) Keys() []K {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	keys := make([]K, 0, len(m.entries))
	for key := range m.entries {
		keys = append(keys, key)
	}
	return keys
}

// Snapshot returns a copy of the current entries.
func (m *ObservableMap[K, V]) Snapshot() map[K]V {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	snapshot := make(map[K]V, len(m.entries))
	for key, value := range m.entries {
		snapshot[key] = value
	}
	return snapshot
}

// invoke runs one listener, containing any panic so the mutation completes
// and the remaining listeners still fire.
func invoke[K comparable, V any](listener Listener[K, V], key K, value V) {
	defer func() {
		if r := recover(); r != nil {
			logs.Errorf("observable map listener panicked, key: %v, err: %+v", key, r)
		}
	}()

	listener(key, value)
}
