package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestRunReportsEveryCheck(t *testing.T) {
	c := NewChecker(time.Second)
	c.Add("redis", func(context.Context) error { return nil })
	c.Add("postgres", func(context.Context) error { return errors.New("connection refused") })

	ready, statuses := c.Run(context.Background())

	assert.False(t, ready)
	assert.Equal(t, map[string]string{"redis": "ok", "postgres": "connection refused"}, statuses)
}

func TestRunWithoutChecksIsReady(t *testing.T) {
	ready, statuses := NewChecker(0).Run(context.Background())
	assert.True(t, ready)
	assert.Empty(t, statuses)
}

func TestRunAppliesTimeout(t *testing.T) {
	c := NewChecker(20 * time.Millisecond)
	c.Add("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	ready, statuses := c.Run(context.Background())
	assert.False(t, ready)
	assert.Equal(t, context.DeadlineExceeded.Error(), statuses["slow"])
}

func TestSyncUpdatesGRPCStatus(t *testing.T) {
	var failing bool
	c := NewChecker(time.Second)
	c.Add("cache", func(context.Context) error {
		if failing {
			return errors.New("down")
		}
		return nil
	})
	srv := grpchealth.NewServer()
	ctx := context.Background()

	c.Sync(ctx, srv, zap.NewNop())
	resp, err := srv.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	failing = true
	c.Sync(ctx, srv, zap.NewNop())
	resp, err = srv.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}
