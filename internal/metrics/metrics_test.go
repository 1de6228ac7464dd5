package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"beefsteak/internal/model"
)

func TestMetrics_Counts(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ListSubmitted(true)
	m.ListSubmitted(false)
	m.ListSubmitted(false)
	m.ListFinished(model.ListCompleted)
	m.ListFinished(model.ListFailed)
	m.TaskCompleted()
	m.ListsExpired(3)
	m.ListsExpired(0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.listsSubmitted.WithLabelValues("user")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.listsSubmitted.WithLabelValues("guest")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.listsFinished.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.listsFinished.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasksCompleted))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.listsExpired))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ListSubmitted(true)
		m.ListFinished(model.ListFailed)
		m.TaskCompleted()
		m.ListsExpired(1)
	})
}
