package main

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"embedding-backfill/internal/common/metrics"
)

func TestRun_ConnectionFailureExitsOne(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://backfill:secret@%zz:5432/realestate_db")
	t.Setenv("PUSHGATEWAY_URL", "")
	t.Setenv("LOG_LEVEL", "error")

	before := testutil.ToFloat64(metrics.RunFailures.WithLabelValues("DATABASE_CONNECTION_FAILED"))

	assert.Equal(t, 1, run())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.RunFailures.WithLabelValues("DATABASE_CONNECTION_FAILED")))
}

func TestRun_InvalidConfigExitsOne(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "word2vec")

	assert.Equal(t, 1, run())
}
