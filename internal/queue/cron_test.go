package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turahe/mediacore/config"
)

func TestStartCron_WiresJobsAndShutsDown(t *testing.T) {
	q := New(config.TaskQueue{CheapWorkers: 1, ExpensiveWorkers: 1})
	q.RegisterHandler("VerifyStorage", func(ctx context.Context, q *Queue, task Task) error { return nil })
	q.RegisterHandler("UpdateSearches", func(ctx context.Context, q *Queue, task Task) error { return nil })

	s, err := StartCron(q, config.Scheduler{
		VerifyStorageCron:  "0 3 * * *",
		UpdateSearchesCron: "*/15 * * * *",
	}, func(ctx context.Context) ([]string, error) {
		return []string{"cat1"}, nil
	})
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.NoError(t, s.Shutdown())
}

func TestStartCron_EmptyExpressionsSkipJobs(t *testing.T) {
	q := New(config.TaskQueue{CheapWorkers: 1, ExpensiveWorkers: 1})

	s, err := StartCron(q, config.Scheduler{}, func(ctx context.Context) ([]string, error) {
		return nil, nil
	})
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Empty(t, s.Jobs())

	assert.NoError(t, s.Shutdown())
}

func TestStartCron_InvalidTimezoneFallsBackToLocal(t *testing.T) {
	q := New(config.TaskQueue{CheapWorkers: 1, ExpensiveWorkers: 1})

	s, err := StartCron(q, config.Scheduler{Timezone: "Not/AZone"}, func(ctx context.Context) ([]string, error) {
		return nil, nil
	})
	require.NoError(t, err)
	defer s.Shutdown()

	time.Sleep(time.Millisecond)
}
