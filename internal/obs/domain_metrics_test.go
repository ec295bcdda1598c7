package obs_test

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-dyntax/internal/obs"
)

func TestDomainMetricsObserve(t *testing.T) {
	obs.MustRegisterDomainMetrics("toko_test", prometheus.NewRegistry())

	before := testutil.ToFloat64(obs.DynamicTaxEvaluations.WithLabelValues(obs.DynamicTaxApplied))
	obs.ObserveDynamicTax(obs.DynamicTaxApplied)
	require.Equal(t, before+1, testutil.ToFloat64(obs.DynamicTaxEvaluations.WithLabelValues(obs.DynamicTaxApplied)))

	recalcs := testutil.ToFloat64(obs.CartFeeRecalculations)
	obs.ObserveCartFeeRecalculation()
	require.Equal(t, recalcs+1, testutil.ToFloat64(obs.CartFeeRecalculations))

	failed := testutil.ToFloat64(obs.SettingsWrites.WithLabelValues("save", "error"))
	obs.ObserveSettingsWrite("save", errors.New("boom"))
	require.Equal(t, failed+1, testutil.ToFloat64(obs.SettingsWrites.WithLabelValues("save", "error")))

	limited := testutil.ToFloat64(obs.RateLimitDecisions.WithLabelValues("cart", "limited"))
	obs.ObserveRateLimit("cart", "limited")
	require.Equal(t, limited+1, testutil.ToFloat64(obs.RateLimitDecisions.WithLabelValues("cart", "limited")))
}
