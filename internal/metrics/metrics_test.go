package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := New()
	m.IncrementFile("success")
	m.IncrementFile("success")
	m.IncrementFile("failed")
	m.IncrementFailure("malformed_data")
	m.ObserveBatch(2, 3, 5, 1, 0)
	m.ObserveDecode(time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FilesProcessed.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesProcessed.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Failures.WithLabelValues("malformed_data")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.Transactions))
	assert.Equal(t, 1, testutil.CollectAndCount(m.DecodeDuration))
}

func TestMetricsInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.ObserveBatch(1, 0, 0, 0, 0)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Interchanges))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveBatch(1, 1, 1, 0, 0)
	path := filepath.Join(t.TempDir(), "x12dec.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "x12dec_interchanges_total 1")
}
