package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestRunnerStopsAllOnFailure(t *testing.T) {
	errFailed := errors.New("failed")
	r := NewRunner()
	r.Go(NamedRun("wait", RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})), RunFunc(func(context.Context) error {
		return errFailed
	}))
	err := r.Wait()
	require.Error(t, err)
	require.True(t, errors.Is(err, errFailed))
	require.Equal(t, errFailed.Error(), err.Error())
}

func TestRunnerStop(t *testing.T) {
	r := NewRunner()
	r.Go(RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	r.Stop()
	require.NoError(t, r.Wait())
}

func TestCloseOnCancel(t *testing.T) {
	closed := make(chan struct{})
	run := CloseOnCancel(closerFunc(func() error {
		close(closed)
		return nil
	}), RunFunc(func(ctx context.Context) error {
		<-closed
		return nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("not closed")
	}
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil).Aggregate())
	e1, e2 := errors.New("e1"), errors.New("e2")
	err := errs.Add(e1, nil, e2).Aggregate()
	require.Equal(t, "1) e1; 2) e2", err.Error())
	require.True(t, errors.Is(err, e2))

	var single AggregatedError
	require.Equal(t, "e1", single.Add(e1).Aggregate().Error())
	require.Equal(t, 1, single.Len())
}
