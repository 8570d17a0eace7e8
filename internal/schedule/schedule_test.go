package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualRunsInDueOrder(t *testing.T) {
	m := NewManual()
	var got []string
	m.AfterFunc(3*time.Second, func() { got = append(got, "c") })
	m.AfterFunc(time.Second, func() { got = append(got, "a") })
	m.AfterFunc(2*time.Second, func() { got = append(got, "b") })

	m.Advance(1500 * time.Millisecond)
	assert.Equal(t, []string{"a"}, got)
	assert.Equal(t, 2, m.Pending())

	m.RunAll()
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Zero(t, m.Pending())
}

func TestManualStop(t *testing.T) {
	m := NewManual()
	ran := false
	timer := m.AfterFunc(time.Second, func() { ran = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	m.Advance(time.Minute)
	assert.False(t, ran)
}

func TestManualChainedScheduling(t *testing.T) {
	m := NewManual()
	count := 0
	m.AfterFunc(time.Second, func() {
		count++
		m.AfterFunc(time.Second, func() { count++ })
	})

	m.Advance(2 * time.Second)
	assert.Equal(t, 2, count)
}

func TestRealFires(t *testing.T) {
	done := make(chan struct{})
	Real{}.AfterFunc(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("real timer did not fire")
	}
}
