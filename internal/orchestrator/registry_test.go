package orchestrator

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_InsertClaimsOnce(t *testing.T) {
	r := NewRunningRegistry()
	e := Entry{FeatureID: "f1", ProjectPath: "/p", IsAutoMode: true}

	assert.True(t, r.Insert(e))
	assert.False(t, r.Insert(e), "second claim for the same feature must fail")
	assert.True(t, r.Has("f1"))

	r.Remove("f1")
	assert.False(t, r.Has("f1"))
	assert.True(t, r.Insert(e), "claim must succeed again after removal")
}

func TestRegistry_CountForProject(t *testing.T) {
	r := NewRunningRegistry()
	r.Insert(Entry{FeatureID: "a", ProjectPath: "/p1"})
	r.Insert(Entry{FeatureID: "b", ProjectPath: "/p1"})
	r.Insert(Entry{FeatureID: "c", ProjectPath: "/p2"})

	assert.Equal(t, 2, r.CountForProject("/p1"))
	assert.Equal(t, 1, r.CountForProject("/p2"))
	assert.Equal(t, 0, r.CountForProject("/p3"))
	assert.Equal(t, 3, r.Len())
}

func TestRegistry_ConcurrentClaims(t *testing.T) {
	r := NewRunningRegistry()

	const goroutines = 50
	var wg sync.WaitGroup
	wins := make(chan int, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if r.Insert(Entry{FeatureID: "contested", ProjectPath: "/p"}) {
				wins <- i
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	assert.Equal(t, 1, count, "exactly one goroutine may claim a feature")
}
