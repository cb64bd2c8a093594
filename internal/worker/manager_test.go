package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeWorker records lifecycle calls in a shared journal
type fakeWorker struct {
	name     string
	startErr error
	journal  *[]string
}

func (w *fakeWorker) Start(ctx context.Context) error {
	if w.startErr != nil {
		return w.startErr
	}
	*w.journal = append(*w.journal, "start:"+w.name)
	return nil
}

func (w *fakeWorker) Stop() {
	*w.journal = append(*w.journal, "stop:"+w.name)
}

func (w *fakeWorker) Name() string { return w.name }

func TestManagerLifecycle(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	t.Run("starts in order, stops in reverse", func(t *testing.T) {
		var journal []string
		m := NewManager(logger)
		m.Register(&fakeWorker{name: "a", journal: &journal})
		m.Register(&fakeWorker{name: "b", journal: &journal})

		require.NoError(t, m.StartAll(context.Background()))
		m.StopAll()

		assert.Equal(t, []string{"start:a", "start:b", "stop:b", "stop:a"}, journal)
		assert.Equal(t, 2, m.Count())
	})

	t.Run("failed start unwinds the workers already running", func(t *testing.T) {
		var journal []string
		m := NewManager(logger)
		m.Register(&fakeWorker{name: "a", journal: &journal})
		m.Register(&fakeWorker{name: "b", startErr: errors.New("port in use"), journal: &journal})
		m.Register(&fakeWorker{name: "c", journal: &journal})

		err := m.StartAll(context.Background())
		require.Error(t, err)
		assert.ErrorContains(t, err, "failed to start worker b")

		// a was started and rolled back; c never started.
		assert.Equal(t, []string{"start:a", "stop:a"}, journal)
	})
}
