package startup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/logging"
)

type recorder struct {
	events []string
}

func (r *recorder) dependency(name string, requires ...string) Func {
	return Func{
		Name:     name,
		Requires: requires,
		StartFn: func(context.Context) error {
			r.events = append(r.events, "start "+name)
			return nil
		},
		StopFn: func(context.Context) error {
			r.events = append(r.events, "stop "+name)
			return nil
		},
	}
}

func TestStartup_Order(t *testing.T) {
	rec := &recorder{}
	s := NewStartup(logging.Nop(), 1, time.Millisecond)
	s.AddDependency(rec.dependency("kafka"))
	s.AddDependency(rec.dependency("graph", "database"))
	s.AddDependency(rec.dependency("database"))

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"start kafka", "start database", "start graph"}, rec.events)
	assert.True(t, s.Ready())

	rec.events = nil
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, []string{"stop graph", "stop database", "stop kafka"}, rec.events)
	assert.Equal(t, StatusStopped, s.Statuses()["database"])
	assert.False(t, s.Ready())
}

func TestStartup_Retry(t *testing.T) {
	calls := 0
	s := NewStartup(logging.Nop(), 3, time.Millisecond)
	s.AddDependency(Func{
		Name: "database",
		StartFn: func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("connection refused")
			}
			return nil
		},
	})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 3, calls)
	assert.Equal(t, StatusStarted, s.Statuses()["database"])
}

func TestStartup_GivesUp(t *testing.T) {
	refused := errors.New("connection refused")
	s := NewStartup(logging.Nop(), 2, time.Millisecond)
	s.AddDependency(Func{Name: "kafka", StartFn: func(context.Context) error { return refused }})

	err := s.Start(context.Background())
	assert.ErrorIs(t, err, refused)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, StatusFailed, s.Statuses()["kafka"])
	assert.False(t, s.Ready())
}

func TestStartup_UnknownDependency(t *testing.T) {
	s := NewStartup(logging.Nop(), 1, time.Millisecond)
	s.AddDependency(Func{Name: "graph", Requires: []string{"database"}})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown startup dependency 'database'")
}

func TestStartup_Cycle(t *testing.T) {
	s := NewStartup(logging.Nop(), 1, time.Millisecond)
	s.AddDependency(Func{Name: "a", Requires: []string{"b"}})
	s.AddDependency(Func{Name: "b", Requires: []string{"a"}})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestStartup_CancelledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewStartup(logging.Nop(), 5, time.Hour)
	s.AddDependency(Func{Name: "kafka", StartFn: func(context.Context) error {
		cancel()
		return errors.New("unreachable")
	}})

	assert.ErrorIs(t, s.Start(ctx), context.Canceled)
}
