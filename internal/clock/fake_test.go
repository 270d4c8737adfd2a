package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeAdvanceFiresDueTimers(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	fired := false
	f.ScheduleAfter(5*time.Second, func() { fired = true })

	f.Advance(3 * time.Second)
	assert.False(t, fired)

	f.Advance(3 * time.Second)
	assert.True(t, fired)
}

func TestFakeCancelPreventsFire(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	fired := false
	h := f.ScheduleAfter(time.Second, func() { fired = true })
	h.Cancel()

	f.Advance(2 * time.Second)
	assert.False(t, fired)
}

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	var order []int
	f.ScheduleAfter(2*time.Second, func() { order = append(order, 2) })
	f.ScheduleAfter(1*time.Second, func() { order = append(order, 1) })

	f.Advance(3 * time.Second)
	assert.Equal(t, []int{1, 2}, order)
}
