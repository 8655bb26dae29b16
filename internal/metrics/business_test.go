package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertBizMetricLine checks that the Prometheus output contains a business metric
// matching the given name, partial label pattern, and value. Uses regex to handle
// extra OTel scope labels injected by the Prometheus exporter.
func assertBizMetricLine(t *testing.T, output, name, labels, value string) {
	t.Helper()
	pattern := name + `\{[^}]*` + labels + `[^}]*\} ` + value
	assert.Regexp(t, pattern, output)
}

func TestNewBusinessMetrics(t *testing.T) {
	t.Run("Success_CreateBusinessMetrics", func(t *testing.T) {
		provider, err := NewProvider("teevault")
		require.NoError(t, err)

		businessMetrics, err := NewBusinessMetrics(provider.MeterProvider(), "teevault")

		require.NoError(t, err)
		assert.NotNil(t, businessMetrics)
	})
}

func TestBusinessMetrics_RecordOperation(t *testing.T) {
	provider, err := NewProvider("teevault")
	require.NoError(t, err)

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "teevault")
	require.NoError(t, err)

	t.Run("Success_RecordSuccessfulOperation", func(t *testing.T) {
		bm.RecordOperation(context.Background(), "vault", "unlock", "success")
	})

	t.Run("Success_RecordFailedOperation", func(t *testing.T) {
		bm.RecordOperation(context.Background(), "vault", "unlock", "error")
	})

	t.Run("Success_RecordMultipleOperations", func(t *testing.T) {
		bm.RecordOperation(context.Background(), "vault", "add_entry", "success")
		bm.RecordOperation(context.Background(), "vault", "retrieve_entry", "success")
		bm.RecordOperation(context.Background(), "vault", "rotate_master", "error")
	})
}

func TestBusinessMetrics_RecordDuration(t *testing.T) {
	provider, err := NewProvider("teevault")
	require.NoError(t, err)

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "teevault")
	require.NoError(t, err)

	t.Run("Success_RecordSuccessfulDuration", func(t *testing.T) {
		bm.RecordDuration(context.Background(), "vault", "unlock", 123*time.Millisecond, "success")
	})

	t.Run("Success_RecordFailedDuration", func(t *testing.T) {
		bm.RecordDuration(context.Background(), "vault", "unlock", 456*time.Millisecond, "error")
	})

	t.Run("Success_RecordMultipleOperations", func(t *testing.T) {
		bm.RecordDuration(context.Background(), "vault", "add_entry", 100*time.Millisecond, "success")
		bm.RecordDuration(context.Background(), "vault", "retrieve_entry", 200*time.Millisecond, "success")
		bm.RecordDuration(context.Background(), "vault", "rotate_master", 300*time.Millisecond, "error")
	})
}

func TestNewNoOpBusinessMetrics(t *testing.T) {
	noOpMetrics := NewNoOpBusinessMetrics()

	assert.NotNil(t, noOpMetrics)
	assert.IsType(t, &NoOpBusinessMetrics{}, noOpMetrics)

	t.Run("NoOp_RecordOperationDoesNotPanic", func(t *testing.T) {
		noOpMetrics.RecordOperation(context.Background(), "vault", "unlock", "success")
		noOpMetrics.RecordOperation(context.Background(), "vault", "add_entry", "error")
	})

	t.Run("NoOp_RecordDurationDoesNotPanic", func(t *testing.T) {
		noOpMetrics.RecordDuration(
			context.Background(),
			"vault",
			"unlock",
			100*time.Millisecond,
			"success",
		)
		noOpMetrics.RecordDuration(context.Background(), "vault", "add_entry", 200*time.Millisecond, "error")
	})
}

func TestBusinessMetrics_Integration(t *testing.T) {
	provider, err := NewProvider("teevault_integration")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "teevault_integration")
	require.NoError(t, err)

	ctx := context.Background()

	bm.RecordOperation(ctx, "vault", "unlock", "success")
	bm.RecordOperation(ctx, "vault", "unlock", "success")
	bm.RecordOperation(ctx, "vault", "unlock", "error")
	bm.RecordOperation(ctx, "vault", "add_entry", "success")
	bm.RecordOperation(ctx, "vault", "retrieve_entry", "success")
	bm.RecordOperation(ctx, "vault", "rotate_master", "success")

	bm.RecordDuration(ctx, "vault", "unlock", 50*time.Millisecond, "success")
	bm.RecordDuration(ctx, "vault", "unlock", 60*time.Millisecond, "success")
	bm.RecordDuration(ctx, "vault", "unlock", 100*time.Millisecond, "error")
	bm.RecordDuration(ctx, "vault", "add_entry", 10*time.Millisecond, "success")
	bm.RecordDuration(ctx, "vault", "retrieve_entry", 20*time.Millisecond, "success")
	bm.RecordDuration(ctx, "vault", "rotate_master", 150*time.Millisecond, "success")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	provider.Handler().ServeHTTP(w, req)

	output := w.Body.String()

	assertBizMetricLine(
		t,
		output,
		`teevault_integration_operations_total`,
		`domain="vault".*operation="unlock".*status="success"`,
		`2`,
	)
	assertBizMetricLine(
		t,
		output,
		`teevault_integration_operations_total`,
		`domain="vault".*operation="unlock".*status="error"`,
		`1`,
	)
	assertBizMetricLine(
		t,
		output,
		`teevault_integration_operations_total`,
		`domain="vault".*operation="add_entry".*status="success"`,
		`1`,
	)

	assertBizMetricLine(
		t,
		output,
		`teevault_integration_operation_duration_seconds_count`,
		`domain="vault".*operation="unlock".*status="success"`,
		`2`,
	)
	assertBizMetricLine(
		t,
		output,
		`teevault_integration_operation_duration_seconds_sum`,
		`domain="vault".*operation="unlock".*status="success"`,
		``,
	)
}
