package iometrics_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gnames/gnsos/internal/iometrics"
	"github.com/gnames/gnsos/pkg/harvest"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserver(t *testing.T) {
	var o iometrics.Observer
	o.BatchSplit("metrics_test", 10)
	o.BatchSplit("metrics_test", 5)
	o.BatchAbandoned("metrics_test", 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(
		iometrics.BatchSplitsTotal.WithLabelValues("metrics_test")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		iometrics.BatchesAbandonedTotal.WithLabelValues("metrics_test")))
}

func TestRecordHarvest(t *testing.T) {
	ok := harvest.NewInfo("metrics_mvm", 1, harvest.Full)
	ok.Start = time.Now().Add(-time.Minute)
	ok.Add(25)
	ok.Finish(harvest.Success)
	iometrics.RecordHarvest(ok)

	failed := harvest.NewInfo("metrics_mvm", 1, harvest.Full)
	failed.Add(7)
	failed.Finish(harvest.Failed)
	iometrics.RecordHarvest(failed)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		iometrics.HarvestRunsTotal.WithLabelValues("metrics_mvm", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		iometrics.HarvestRunsTotal.WithLabelValues("metrics_mvm", "failed")))
	assert.Equal(t, 25.0, testutil.ToFloat64(
		iometrics.HarvestRecordsTotal.WithLabelValues("metrics_mvm")))

	rec := httptest.NewRecorder()
	iometrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "gnsos_harvest_runs_total")
}
