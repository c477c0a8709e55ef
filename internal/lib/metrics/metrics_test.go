package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.LoginAttempts.WithLabelValues(LoginFailed).Inc()
	m.LoginAttempts.WithLabelValues(LoginFailed).Inc()
	m.AccountLocks.Inc()
	m.Reactions.WithLabelValues("like", "like").Inc()
	m.CacheLookups.WithLabelValues("hit").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoginAttempts.WithLabelValues(LoginFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AccountLocks))

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
