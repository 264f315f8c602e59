package converter

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/x12-decoder/internal/config"
	"github.com/ginjaninja78/x12-decoder/internal/metrics"
	"github.com/ginjaninja78/x12-decoder/internal/schema"
)

func isaHeader(control string) string {
	return fmt.Sprintf("ISA*00*%-10s*00*%-10s*ZZ*%-15s*ZZ*%-15s*030101*1253*U*00401*%s*0*T*:",
		"", "", "SENDER", "RECEIVER", control)
}

func purchaseOrder(control string) []string {
	return []string{
		isaHeader(control),
		"GS*PO*SENDER*RECEIVER*20030101*1253*1*X*004010",
		"ST*850*0001",
		"BEG*00*SA*PO-1**20030101",
		"N1*ST*ACME WEST",
		"PO1*1*10*EA*9.95",
		"SE*5*0001",
		"GE*1*1",
		"IEA*1*" + control,
	}
}

func payload(segments ...string) string {
	return strings.Join(segments, "~\n") + "~\n"
}

type fixture struct {
	main     *config.MainConfig
	registry *schema.Registry
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	main := config.Default()
	main.InputDir = filepath.Join(root, "input")
	main.OutputDir = filepath.Join(root, "output")
	main.InputArchiveDir = filepath.Join(root, "input_archive")
	main.OutputArchiveDir = filepath.Join(root, "output_archive")
	main.UUIDFormat = "{partner}_{batch}.xml"
	require.NoError(t, os.MkdirAll(main.InputDir, 0755))
	require.NoError(t, os.MkdirAll(main.OutputDir, 0755))

	return &fixture{main: main, registry: schema.NewBuiltinRegistry(), metrics: metrics.New()}
}

func (f *fixture) input(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.main.InputDir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func (f *fixture) run(path string, partner *config.PartnerConfig, opts ...Option) Result {
	opts = append([]Option{WithMetrics(f.metrics)}, opts...)
	return New(path, partner, f.main, f.registry, opts...).Run(context.Background())
}

func TestRun_Success(t *testing.T) {
	f := newFixture(t)
	path := f.input(t, "acme_850.x12", payload(purchaseOrder("000000001")...))
	partner := &config.PartnerConfig{
		PartnerName: "Acme",
		PartnerCode: "ACME",
		Output:      config.OutputSettings{RootElement: "AcmeOrders"},
	}

	result := f.run(path, partner)
	require.NoError(t, result.Error)
	require.True(t, result.Success)

	assert.Equal(t, "ACME", result.Partner)
	assert.Equal(t, filepath.Join(f.main.OutputDir, "ACME_"+result.Batch.ID+".xml"), result.OutputFile)
	assert.Equal(t, 1, result.Stats.Interchanges)
	assert.Equal(t, 1, result.Stats.Groups)
	assert.Equal(t, 1, result.Stats.Transactions)
	assert.Zero(t, result.Stats.ValidationErrors)
	assert.Positive(t, result.Stats.ProcessingTime)

	doc, err := os.ReadFile(result.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "<AcmeOrders")
	assert.Contains(t, string(doc), `partner="ACME"`)

	assert.NoFileExists(t, path)
	assert.FileExists(t, filepath.Join(f.main.InputArchiveDir, "acme_850.x12"))
	assert.Equal(t, filepath.Join(f.main.InputArchiveDir, "acme_850.x12"), result.ArchivePath)
	assert.FileExists(t, filepath.Join(f.main.OutputArchiveDir, filepath.Base(result.OutputFile)))

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.FilesProcessed.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Transactions))
	assert.Equal(t, 1, testutil.CollectAndCount(f.metrics.DecodeDuration))
}

func TestRun_OutputNeverOverwritten(t *testing.T) {
	f := newFixture(t)
	f.main.UUIDFormat = "orders.xml"
	first := f.run(f.input(t, "a.x12", payload(purchaseOrder("000000001")...)), nil)
	require.True(t, first.Success)
	before, err := os.ReadFile(first.OutputFile)
	require.NoError(t, err)

	second := f.input(t, "b.x12", payload(purchaseOrder("000000002")...))
	result := f.run(second, nil)
	assert.False(t, result.Success)
	assert.Equal(t, "output", result.ErrorKind)
	assert.ErrorIs(t, result.Error, fs.ErrExist)
	assert.FileExists(t, second)

	after, err := os.ReadFile(first.OutputFile)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRun_DefaultPartner(t *testing.T) {
	f := newFixture(t)
	path := f.input(t, "orders.x12", payload(purchaseOrder("000000001")...))

	result := f.run(path, nil)
	require.True(t, result.Success)
	assert.Equal(t, DefaultPartnerCode, result.Partner)
	assert.True(t, strings.HasPrefix(filepath.Base(result.OutputFile), "default_"))

	doc, err := os.ReadFile(result.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "<X12Batch")
}

func TestRun_ValidationErrorsDoNotFailFile(t *testing.T) {
	f := newFixture(t)
	segs := purchaseOrder("000000001")
	segs[6] = "SE*9*0001"
	path := f.input(t, "orders.x12", payload(segs...))

	result := f.run(path, nil)
	require.True(t, result.Success)
	assert.Equal(t, 1, result.Stats.ValidationErrors)

	var found bool
	for _, e := range result.Entries {
		if e.ErrorType == "validation" {
			found = true
			assert.Equal(t, "orders.x12", e.FileName)
			assert.Equal(t, "000000001", e.Interchange)
			assert.Equal(t, "1", e.Group)
			assert.Equal(t, "850/0001", e.Transaction)
			assert.Equal(t, "SE", e.Segment)
		}
	}
	assert.True(t, found, "validation entry expected in %+v", result.Entries)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ValidationErrors))
}

func TestRun_FatalErrors(t *testing.T) {
	po := purchaseOrder("000000001")
	// SE right after GS: no transaction set is open.
	trailerBeforeHeader := []string{po[0], po[1], po[6], po[7], po[8]}

	tests := []struct {
		name    string
		content string
		kind    string
		segment string
	}{
		{"not x12", "hello world", "format", ""},
		{"envelope out of order", payload(trailerBeforeHeader...), "malformed_data", "SE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			path := f.input(t, "bad.x12", tt.content)

			result := f.run(path, nil)
			assert.False(t, result.Success)
			require.Error(t, result.Error)
			assert.Equal(t, tt.kind, result.ErrorKind)
			assert.Empty(t, result.OutputFile)
			assert.FileExists(t, path)

			require.NotEmpty(t, result.Entries)
			assert.Equal(t, tt.kind, result.Entries[0].ErrorType)
			assert.Equal(t, tt.segment, result.Entries[0].Segment)

			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.FilesProcessed.WithLabelValues("failed")))
			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Failures.WithLabelValues(tt.kind)))
		})
	}

	t.Run("missing file", func(t *testing.T) {
		f := newFixture(t)
		result := f.run(filepath.Join(f.main.InputDir, "none.x12"), nil)
		assert.False(t, result.Success)
		assert.Equal(t, "io", result.ErrorKind)
	})
}

func TestRun_KeepsInterchangesBeforeFault(t *testing.T) {
	f := newFixture(t)
	segs := append(purchaseOrder("000000001"), "GE*1*1")
	path := f.input(t, "orders.x12", payload(segs...))

	result := f.run(path, nil)
	assert.Equal(t, "malformed_data", result.ErrorKind)
	require.NotNil(t, result.Batch)
	assert.Len(t, result.Batch.Interchanges, 1)
	assert.Equal(t, 1, result.Stats.Interchanges)
}

func TestRun_DryRun(t *testing.T) {
	f := newFixture(t)
	path := f.input(t, "orders.x12", payload(purchaseOrder("000000001")...))

	result := f.run(path, nil, WithDryRun(true))
	require.True(t, result.Success)
	assert.Empty(t, result.OutputFile)
	assert.FileExists(t, path)

	entries, err := os.ReadDir(f.main.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_InterchangeReset(t *testing.T) {
	open := purchaseOrder("000000001")[:3]
	content := payload(append(open, purchaseOrder("000000002")...)...)

	t.Run("lenient", func(t *testing.T) {
		f := newFixture(t)
		result := f.run(f.input(t, "orders.x12", content), nil)
		require.True(t, result.Success)
		require.Len(t, result.Batch.Interchanges, 1)
		assert.Equal(t, "000000002", result.Batch.Interchanges[0].ControlNumber())
		assert.Equal(t, 1, result.Stats.Warnings)

		last := result.Entries[len(result.Entries)-1]
		assert.Equal(t, "warning", last.ErrorType)
	})

	t.Run("partner strict", func(t *testing.T) {
		f := newFixture(t)
		strict := true
		partner := &config.PartnerConfig{
			PartnerCode: "STRICT",
			Decoder:     config.DecoderSettings{StrictInterchanges: &strict},
		}
		result := f.run(f.input(t, "orders.x12", content), partner)
		assert.False(t, result.Success)
		assert.Equal(t, "malformed_data", result.ErrorKind)
	})

	t.Run("override wins over partner", func(t *testing.T) {
		f := newFixture(t)
		strict, lenient := true, false
		partner := &config.PartnerConfig{
			PartnerCode: "STRICT",
			Decoder:     config.DecoderSettings{StrictInterchanges: &strict},
		}
		result := f.run(f.input(t, "orders.x12", content), partner,
			WithDecoderOverride(config.DecoderSettings{StrictInterchanges: &lenient}))
		assert.True(t, result.Success)
	})
}

func TestRun_Canceled(t *testing.T) {
	f := newFixture(t)
	path := f.input(t, "orders.x12", payload(purchaseOrder("000000001")...))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := New(path, nil, f.main, f.registry).Run(ctx)
	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Error, context.Canceled)
	assert.FileExists(t, path)
}
