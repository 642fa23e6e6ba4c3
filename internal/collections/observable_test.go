package collections

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetRemove(t *testing.T) {
	m := NewObservableMap[string, int]()

	_, ok := m.Get("a")
	require.False(t, ok)

	m.Set("a", 1)
	m.Set("a", 2)
	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, m.Len())

	m.Remove("a")
	_, ok = m.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestSetNotifiesEveryListenerOnce(t *testing.T) {
	m := NewObservableMap[string, int]()

	var first, second int
	m.SubscribeSet(func(key string, value int) { first++ })
	m.SubscribeSet(func(key string, value int) { second++ })

	m.Set("a", 1)

	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}

func TestListenerObservesJustWrittenValue(t *testing.T) {
	m := NewObservableMap[string, int]()

	var reread int
	var ok bool
	m.SubscribeSet(func(key string, value int) {
		reread, ok = m.Get(key)
	})

	m.Set("a", 7)

	require.True(t, ok)
	assert.Equal(t, 7, reread)
}

func TestRemoveNotifiesWithPreviousValue(t *testing.T) {
	m := NewObservableMap[string, int]()

	var got int
	var fired int
	m.SubscribeRemove(func(key string, value int) {
		got = value
		fired++
	})

	m.Set("a", 5)
	m.Remove("a")
	m.Remove("a") // absent, must not notify

	assert.Equal(t, 1, fired)
	assert.Equal(t, 5, got)
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	m := NewObservableMap[string, int]()

	var calls int
	token := m.SubscribeSet(func(key string, value int) { calls++ })

	m.Set("a", 1)
	m.Unsubscribe(token)
	m.Set("a", 2)

	assert.Equal(t, 1, calls)
}

func TestListenerPanicDoesNotCorruptMap(t *testing.T) {
	m := NewObservableMap[string, int]()

	var survivor int
	m.SubscribeSet(func(key string, value int) { panic("boom") })
	m.SubscribeSet(func(key string, value int) { survivor++ })

	m.Set("a", 9)

	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, 9, v)
	assert.Equal(t, 1, survivor, "remaining listeners still fire")

	m.Set("a", 10)
	assert.Equal(t, 2, survivor)
}

func TestConcurrentSetAndGet(t *testing.T) {
	m := NewObservableMap[int, int]()

	const producers = 4
	const writes = 500

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < writes; i++ {
				m.Set(p, i)
				if v, ok := m.Get(p); ok && v > writes {
					t.Errorf("unexpected value: %d", v)
				}
			}
		}(p)
	}
	wg.Wait()

	assert.Equal(t, producers, m.Len())
	for p := 0; p < producers; p++ {
		v, ok := m.Get(p)
		require.True(t, ok)
		assert.Equal(t, writes-1, v)
	}
}

func TestFanOutUnderConcurrentSubscribe(t *testing.T) {
	m := NewObservableMap[string, int]()

	var delivered atomic.Int64
	done := make(chan struct{})

	// churn subscriptions while another goroutine writes
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			token := m.SubscribeSet(func(key string, value int) {
				delivered.Add(1)
			})
			m.Unsubscribe(token)
		}
	}()

	for i := 0; i < 200; i++ {
		m.Set("a", i)
	}
	<-done

	// every write observed the value it wrote
	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, 199, v)
}

func TestSnapshotAndKeys(t *testing.T) {
	m := NewObservableMap[string, int]()
	m.Set("a", 1)
	m.Set("b", 2)

	snap := m.Snapshot()
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, snap)
	assert.ElementsMatch(t, []string{"a", "b"}, m.Keys())

	// snapshot is a copy
	snap["a"] = 99
	v, _ := m.Get("a")
	assert.Equal(t, 1, v)
}
