package testutil

import (
	"crypto/ed25519"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey_Deterministic(t *testing.T) {
	assert.Equal(t, Key("alice"), Key("alice"))
	assert.NotEqual(t, Key("alice"), Key("bob"))
	assert.Equal(t, Identity("alice"), Identity("alice"))

	msg := []byte("hello")
	sig := ed25519.Sign(Key("alice"), msg)
	assert.True(t, ed25519.Verify(Identity("alice").PublicKey(), msg, sig))
}

func TestSequentialIDs(t *testing.T) {
	g := NewSequentialIDs("")
	assert.Equal(t, "exec-0001", g.Generate())
	assert.Equal(t, "exec-0002", g.Generate())

	custom := NewSequentialIDs("run")
	assert.Equal(t, "run-0001", custom.Generate())
}

func TestSequentialIDs_ThreadSafe(t *testing.T) {
	g := NewSequentialIDs("x")
	const n = 100

	var wg sync.WaitGroup
	seen := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- g.Generate()
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[string]bool)
	for id := range seen {
		unique[id] = true
	}
	assert.Len(t, unique, n)
}
