package scheduler

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time so cycle timing can be driven by tests
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) Timer
}

// Timer is the subset of *time.Timer the scheduler uses
type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTimer(d time.Duration) Timer { return &realTimer{t: time.NewTimer(d)} }

type realTimer struct{ t *time.Timer }

func (r *realTimer) C() <-chan time.Time { return r.t.C }

func (r *realTimer) Stop() bool {
	if !r.t.Stop() {
		select {
		case <-r.t.C:
		default:
		}
		return false
	}
	return true
}

// RealClock returns the wall clock
func RealClock() Clock { return realClock{} }

// newCycleID generates a cycle ID that sorts by start time
func newCycleID(group string, start time.Time) string {
	return fmt.Sprintf("%s-%s-%s", group, start.UTC().Format("20060102-150405"), uuid.NewString()[:8])
}
