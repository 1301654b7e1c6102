package obs_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/ericfisherdev/surveybridge/internal/obs"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *obs.Metrics

	assert.NotPanics(t, func() {
		m.ObserveRPC("list_surveys", obs.OutcomeOK, time.Millisecond)
		m.ObserveLogin(nil)
		m.TokenIssued()
		m.Warning("no_surveys")
	})
}

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := obs.NewMetrics(reg)

	m.ObserveLogin(nil)
	m.ObserveLogin(errors.New("bad password"))
	m.TokenIssued()
	m.TokenIssued()
	m.Warning("no_assessors")

	assert.Equal(t, 1, testutil.CollectAndCount(reg, "surveybridge_tokens_issued_total"))
	assert.Equal(t, 2, testutil.CollectAndCount(reg, "surveybridge_session_logins_total"))

	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewLogger_Levels(t *testing.T) {
	for _, level := range []string{"debug", "info", "", "WARN", "error"} {
		_, err := obs.NewLogger(&nopWriter{}, level)
		assert.NoError(t, err, level)
	}

	_, err := obs.NewLogger(&nopWriter{}, "verbose")
	assert.Error(t, err)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
