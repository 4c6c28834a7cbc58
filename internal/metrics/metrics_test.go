package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordProcessedIncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(RecordsProcessed.WithLabelValues("load", "ok"))
	RecordProcessed("load", "ok")
	after := testutil.ToFloat64(RecordsProcessed.WithLabelValues("load", "ok"))
	assert.Equal(t, before+1, after)
}

func TestRecordStatementIncrementsExecutedCounter(t *testing.T) {
	RecordStatement("write", "ok", 0.01)
	count := testutil.ToFloat64(StatementsExecuted.WithLabelValues("write", "ok"))
	assert.Greater(t, count, float64(0))
}

func TestRecordErrorCeilingHitIncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(ErrorCeilingHits.WithLabelValues("load"))
	RecordErrorCeilingHit("load")
	after := testutil.ToFloat64(ErrorCeilingHits.WithLabelValues("load"))
	assert.Equal(t, before+1, after)
}
