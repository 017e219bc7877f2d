// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package newznab

import (
	"context"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/pitlane-grab/pitlane/internal/logging"
	"github.com/pitlane-grab/pitlane/internal/metrics"
)

// BreakerClient wraps a Client with a per-indexer circuit breaker so one
// misbehaving indexer cannot burn every retry budget in the search fan-out.
type BreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewBreakerClient builds a circuit-breaker-wrapped client for one indexer.
// Settings match the teacher's Tautulli breaker: 3 half-open probes, 1
// minute measurement window, 2 minute open timeout, trips at 60% failure
// rate once at least 10 requests have been observed.
func NewBreakerClient(client *Client, indexerName string) *BreakerClient {
	name := "indexer-" + indexerName

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			logging.Warn().Str("breaker", name).Str("from", fromStr).Str("to", toStr).
				Msg("indexer circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(metrics.StateToFloat(toStr))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &BreakerClient{client: client, cb: cb, name: name}
}

// Search runs the wrapped client's Search inside the breaker.
func (b *BreakerClient) Search(ctx context.Context, q Query) ([]Item, error) {
	result, err := castResult[[]Item](b.cb.Execute(func() (interface{}, error) {
		return b.client.Search(ctx, q)
	}))
	if result == nil {
		return nil, err
	}
	return *result, err
}

// TestConnection runs the wrapped client's TestConnection inside the breaker.
func (b *BreakerClient) TestConnection(ctx context.Context) (Caps, error) {
	result, err := castResult[Caps](b.cb.Execute(func() (interface{}, error) {
		return b.client.TestConnection(ctx)
	}))
	if result == nil {
		return Caps{}, err
	}
	return *result, err
}

// State reports the breaker's current state for operator visibility.
func (b *BreakerClient) State() string {
	return stateToString(b.cb.State())
}

func castResult[T any](result interface{}, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return &typed, nil
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
