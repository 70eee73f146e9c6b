package metrics

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesMetrics(t *testing.T) {
	TaskOps.WithLabelValues("add").Inc()
	XP.Set(140)
	Flushes.WithLabelValues("ok").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `scheduler_task_operations_total{op="add"}`)
	assert.Contains(t, body, "scheduler_user_xp 140")
	assert.Contains(t, body, `scheduler_persist_flushes_total{result="ok"}`)
}

func TestServeDisabled(t *testing.T) {
	assert.NoError(t, Serve(context.Background(), ""))
}
