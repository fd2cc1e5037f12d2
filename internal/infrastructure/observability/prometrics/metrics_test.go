package prometrics_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/userdetails/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/userdetails/internal/observability"
)

func TestRegistry_Counter(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := prometrics.New(reg, "usersvc", "")

	c := r.Counter("usecase_requests_total", "Total number of use case invocations.", "use_case", "outcome")
	c.Add(1, observability.L("use_case", "user.update_username"), observability.L("outcome", "success"))
	c.Bind(observability.L("use_case", "user.update_username"), observability.L("outcome", "success")).Add(2)

	expected := `
# HELP usersvc_usecase_requests_total Total number of use case invocations.
# TYPE usersvc_usecase_requests_total counter
usersvc_usecase_requests_total{outcome="success",use_case="user.update_username"} 3
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "usersvc_usecase_requests_total")
	assert.NoError(t, err)
}

func TestRegistry_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := prometrics.New(reg, "usersvc", "")

	first := r.Counter("events_handled_total", "help", "event", "outcome")
	assert.NotPanics(t, func() {
		second := r.Counter("events_handled_total", "help", "event", "outcome")
		second.Add(1, observability.L("event", "user.details_changed"), observability.L("outcome", "success"))
	})
	first.Add(1, observability.L("event", "user.details_changed"), observability.L("outcome", "success"))

	n, err := testutil.GatherAndCount(reg, "usersvc_events_handled_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRegistry_Histogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := prometrics.New(reg, "usersvc", "")

	h := r.Histogram("usecase_duration_seconds", "help", nil, "use_case")
	h.Observe(0.01, observability.L("use_case", "user.fetch_profile"))
	h.Bind(observability.L("use_case", "user.update_username")).Observe(0.02)

	n, err := testutil.GatherAndCount(reg, "usersvc_usecase_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRegisterAll(t *testing.T) {
	reg := prometheus.NewRegistry()
	counters, histograms := prometrics.RegisterAll(prometrics.New(reg, "usersvc", ""))

	assert.Len(t, counters, len(observability.Counters))
	assert.Len(t, histograms, len(observability.Histograms))
	assert.NotNil(t, counters[observability.MUsecaseRequests])
	assert.NotNil(t, histograms[observability.MExternalRequestDuration])
}
