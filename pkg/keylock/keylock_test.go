package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSerializesSameKey(t *testing.T) {
	l := New()

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := l.Lock("course-1|student-1")
			defer release()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, l.Len(), "entries are reclaimed after release")
}

func TestDifferentKeysDoNotBlock(t *testing.T) {
	l := New()

	releaseA := l.Lock("a")
	defer releaseA()

	done := make(chan struct{})
	go func() {
		releaseB := l.Lock("b")
		releaseB()
		close(done)
	}()

	<-done // would deadlock if "b" waited on "a"
}

func TestReleaseIsIdempotent(t *testing.T) {
	l := New()

	release := l.Lock("k")
	release()
	release() // second call must be a no-op, not an unlock of someone else

	release2 := l.Lock("k")
	release2()
	assert.Equal(t, 0, l.Len())
}
