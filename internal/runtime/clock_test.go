package runtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClock_StartsAfterResumePoint(t *testing.T) {
	c := NewClockAt(5)
	assert.Equal(t, int64(5), c.Current())
	assert.Equal(t, int64(6), c.Next())
	assert.Equal(t, int64(7), c.Next())
	assert.Equal(t, int64(7), c.Current())
}

func TestClock_ConcurrentNextIsUnique(t *testing.T) {
	c := NewClockAt(0)
	const n = 100

	var wg sync.WaitGroup
	seen := make(chan int64, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- c.Next()
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[int64]bool)
	for v := range seen {
		unique[v] = true
	}
	assert.Len(t, unique, n)
	assert.Equal(t, int64(n), c.Current())
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestClock_ReleaseOnlyLastIssued(t *testing.T) {
	c := NewClockAt(0)
	first := c.Next()
	second := c.Next()

	assert.False(t, c.Release(first))
	assert.Equal(t, int64(2), c.Current())

	assert.True(t, c.Release(second))
	assert.Equal(t, int64(1), c.Current())
	assert.Equal(t, second, c.Next())
}
