package pipestate

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glimte/flowline-go/contracts"
)

func TestInMemoryStore(t *testing.T) {
	t.Run("Get returns false for missing key", func(t *testing.T) {
		store := NewInMemoryStore()

		_, ok := store.Get("nope")

		assert.False(t, ok)
	})

	t.Run("Set then Get round-trips", func(t *testing.T) {
		store := NewInMemoryStore()

		store.Set("key", 42)
		v, ok := store.Get("key")

		assert.True(t, ok)
		assert.Equal(t, 42, v)
	})

	t.Run("Set replaces previous value", func(t *testing.T) {
		store := NewInMemoryStore()

		store.Set("key", 1)
		store.Set("key", 2)
		v, _ := store.Get("key")

		assert.Equal(t, 2, v)
	})

	t.Run("concurrent single-writer access is safe", func(t *testing.T) {
		store := NewInMemoryStore()
		var wg sync.WaitGroup

		for i := 0; i < 8; i++ {
			wg.Add(2)
			key := fmt.Sprintf("writer-%d", i)
			go func(key string) {
				defer wg.Done()
				for n := 0; n < 100; n++ {
					store.Set(key, n)
				}
			}(key)
			go func(key string) {
				defer wg.Done()
				for n := 0; n < 100; n++ {
					store.Get(key)
				}
			}(key)
		}

		wg.Wait()
		assert.Equal(t, 8, store.Len())
	})
}

func TestAccessor(t *testing.T) {
	t.Run("Phase round-trips through the running_ key", func(t *testing.T) {
		store := NewInMemoryStore()
		acc := NewAccessor(store)

		acc.SetPhase("scanner", contracts.PhaseRunning)

		phase, err := acc.Phase("scanner")
		require.NoError(t, err)
		assert.Equal(t, contracts.PhaseRunning, phase)

		_, ok := store.Get("running_scanner")
		assert.True(t, ok)
	})

	t.Run("Phase of unknown component is a missing record", func(t *testing.T) {
		acc := NewAccessor(NewInMemoryStore())

		_, err := acc.Phase("ghost")

		require.Error(t, err)
		assert.True(t, contracts.IsMissingRecord(err))
	})

	t.Run("Data of unknown key is a missing record", func(t *testing.T) {
		acc := NewAccessor(NewInMemoryStore())
		acc.SetData("scanner", "other", 1)

		_, err := acc.Data("scanner", "count")

		require.Error(t, err)
		assert.True(t, contracts.IsMissingRecord(err))
	})

	t.Run("phase and data keys do not collide", func(t *testing.T) {
		store := NewInMemoryStore()
		acc := NewAccessor(store)

		acc.SetPhase("scanner", contracts.PhaseFinished)
		acc.SetData("scanner", "count", 7)

		assert.Equal(t, 2, store.Len())

		phase, err := acc.Phase("scanner")
		require.NoError(t, err)
		assert.Equal(t, contracts.PhaseFinished, phase)

		count, err := acc.CompletionCount("scanner")
		require.NoError(t, err)
		assert.Equal(t, 7, count)
	})

	t.Run("CompletionCount reads what SetCompletionCount wrote", func(t *testing.T) {
		acc := NewAccessor(NewInMemoryStore())

		acc.SetCompletionCount("scanner", 1234)

		count, err := acc.CompletionCount("scanner")
		require.NoError(t, err)
		assert.Equal(t, 1234, count)
	})

	t.Run("CompletionCount rejects a non-int record", func(t *testing.T) {
		store := NewInMemoryStore()
		acc := NewAccessor(store)

		store.Set("data_scanner_count", "three")

		_, err := acc.CompletionCount("scanner")
		assert.Error(t, err)
	})

	t.Run("Phase rejects a non-phase record", func(t *testing.T) {
		store := NewInMemoryStore()
		acc := NewAccessor(store)

		store.Set("running_scanner", 99)

		_, err := acc.Phase("scanner")
		assert.Error(t, err)
	})

	t.Run("Phase rejects an unknown phase value", func(t *testing.T) {
		store := NewInMemoryStore()
		acc := NewAccessor(store)

		store.Set("running_scanner", contracts.Phase("paused"))

		_, err := acc.Phase("scanner")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "paused")
	})
}
