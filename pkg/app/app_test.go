package app

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStopsOnServerError(t *testing.T) {
	a := NewBaseApp(WithName("test"))

	var closed []string
	boom := errors.New("listen failed")
	InitApp(a, AppComponents{
		Servers: []Server{
			ServerFunc(func(ctx context.Context) error { return boom }),
			ServerFunc(func(ctx context.Context) error {
				<-ctx.Done()
				return nil
			}),
		},
		Closers: []Closer{
			CloserFunc(func() error { closed = append(closed, "db"); return nil }),
			CloserFunc(func() error { closed = append(closed, "redis"); return nil }),
		},
	})

	err := a.Run()
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, []string{"redis", "db"}, closed, "closers run in reverse order")
	assert.Equal(t, ErrAppAlreadyRunning, a.Run())
}

func TestShutdownCancelsServers(t *testing.T) {
	a := NewBaseApp()
	stopped := make(chan struct{})
	a.AppendServer(ServerFunc(func(ctx context.Context) error {
		<-ctx.Done()
		close(stopped)
		return nil
	}))

	done := make(chan error, 1)
	go func() { done <- a.Run() }()

	require.NoError(t, a.Shutdown())
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("server not stopped")
	}
	require.NoError(t, <-done)
	assert.Error(t, a.Context().Err())
}
