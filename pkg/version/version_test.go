package version

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	cases := map[int64]string{1: "1.0", 2: "1.1", 10: "1.9", 11: "2.0", 20: "2.9", 21: "3.0"}
	for n, want := range cases {
		assert.Equal(t, want, Format(n))
		assert.Equal(t, n, Parse(want))
	}
	assert.Equal(t, int64(0), Parse("1.10"))
	assert.Equal(t, int64(0), Parse("abc"))
}

func TestNextIsMonotonicPerLineage(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	v1, err := Next(ctx, l, "resume-a")
	require.NoError(t, err)
	v2, _ := Next(ctx, l, "resume-a")
	other, _ := Next(ctx, l, "resume-b")

	assert.Equal(t, "1.0", v1)
	assert.Equal(t, "1.1", v2)
	assert.Equal(t, "1.0", other)
}

func TestConcurrentIssuanceIsUnique(t *testing.T) {
	l := NewMemoryLedger()
	const n = 50

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := map[string]struct{}{}
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := Next(context.Background(), l, "lineage")
			require.NoError(t, err)
			mu.Lock()
			seen[v] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
	assert.Contains(t, seen, "1.0")
	assert.Contains(t, seen, Format(n))
}
