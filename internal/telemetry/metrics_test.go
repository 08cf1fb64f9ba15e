package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInitMetrics_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		InitMetrics()
		InitMetrics()
	})

	before := testutil.ToFloat64(RefreshAttempts.WithLabelValues("no_refresh_token"))
	RefreshAttempts.WithLabelValues("no_refresh_token").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(RefreshAttempts.WithLabelValues("no_refresh_token")))
}
