package cancel

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlag(t *testing.T) {
	t.Run("starts unset", func(t *testing.T) {
		f := NewFlag()

		assert.False(t, f.IsSet())
	})

	t.Run("Set is observed and sticky", func(t *testing.T) {
		f := NewFlag()

		f.Set()
		assert.True(t, f.IsSet())

		f.Set()
		assert.True(t, f.IsSet())
	})

	t.Run("concurrent samplers all observe the set flag", func(t *testing.T) {
		f := NewFlag()
		var wg sync.WaitGroup

		f.Set()
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.True(t, f.IsSet())
			}()
		}
		wg.Wait()
	})
}

func TestFromContext(t *testing.T) {
	t.Run("unset while context is live", func(t *testing.T) {
		sig := FromContext(context.Background())

		assert.False(t, sig.IsSet())
	})

	t.Run("set once context is cancelled", func(t *testing.T) {
		ctx, cancelFn := context.WithCancel(context.Background())
		sig := FromContext(ctx)

		cancelFn()

		assert.True(t, sig.IsSet())
	})
}
