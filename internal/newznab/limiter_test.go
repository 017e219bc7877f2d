// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package newznab

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestLimiterCapsPerIndexerConcurrency(t *testing.T) {
	l := NewLimiter(4, 1)

	var inFlight int32
	var maxSeen int32

	done := make(chan struct{})
	for i := 0; i < 3; i++ {
		go func() {
			release, err := l.Acquire(context.Background())
			if err != nil {
				t.Error(err)
				done <- struct{}{}
				return
			}
			n := atomic.AddInt32(&inFlight, 1)
			for {
				old := atomic.LoadInt32(&maxSeen)
				if n <= old || atomic.CompareAndSwapInt32(&maxSeen, old, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			release()
			done <- struct{}{}
		}()
	}
	for i := 0; i < 3; i++ {
		<-done
	}

	if maxSeen > 1 {
		t.Fatalf("per-indexer limiter allowed %d concurrent calls, want at most 1", maxSeen)
	}
}

func TestLimiterReleaseFreesSlot(t *testing.T) {
	l := NewLimiter(1, 1)
	ctx := context.Background()

	release1, err := l.Acquire(ctx)
	checkNoError(t, err)
	release1()

	release2, err := l.Acquire(ctx)
	checkNoError(t, err)
	release2()
}
