package grpc

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/recipebook/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func okCheck(context.Context) error { return nil }

func servingStatus(t *testing.T, s *HealthServer, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := s.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.Status
}

func TestNewHealthServer_StartsNotServing(t *testing.T) {
	s := NewHealthServer("127.0.0.1:0", logging.Nop(), okCheck, time.Second)

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, servingStatus(t, s, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, servingStatus(t, s, ServiceName))
}

func TestProbe_FollowsCheck(t *testing.T) {
	var fail atomic.Bool
	s := NewHealthServer("127.0.0.1:0", logging.Nop(), func(context.Context) error {
		if fail.Load() {
			return errors.New("db down")
		}
		return nil
	}, time.Second)

	s.probe(context.Background())
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, servingStatus(t, s, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, servingStatus(t, s, ServiceName))

	fail.Store(true)
	s.probe(context.Background())
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, servingStatus(t, s, ServiceName))
}

func TestWatch_ProbesPeriodically(t *testing.T) {
	var calls atomic.Int32
	s := NewHealthServer("127.0.0.1:0", logging.Nop(), func(context.Context) error {
		calls.Add(1)
		return nil
	}, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.watch(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not return after cancel")
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := NewHealthServer("127.0.0.1:0", logging.Nop(), okCheck, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewHealthServer("127.0.0.1:99999", logging.Nop(), okCheck, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Run(ctx); err == nil {
		t.Fatal("expected error from Run on bad address, got nil")
	}
}
