package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketplace/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewOrderMetrics(reg)

	m.CheckoutSucceeded(2, 4450)
	m.CheckoutSucceeded(1, 500)
	m.CheckoutFailed("INSUFFICIENT_STOCK")
	m.StatusChanged("order", "CANCELED")
	m.StockMoved("RESERVE", 5)
	m.StockMoved("RESERVE", 2)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.Checkouts.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Checkouts.WithLabelValues("INSUFFICIENT_STOCK")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.StatusChanges.WithLabelValues("order", "CANCELED")))
	assert.Equal(t, float64(7), testutil.ToFloat64(m.StockMovements.WithLabelValues("RESERVE")))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "marketplace_checkout_final_amount_minor_units"))
}

func TestServerMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewServerMetrics(reg)

	m.Observe(http.MethodGet, "/orders", 200, 12.5)
	m.Observe(http.MethodGet, "/orders", 200, 3)
	m.Observe(http.MethodPost, "/orders", 409, 8)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.Requests.WithLabelValues(http.MethodGet, "/orders", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Requests.WithLabelValues(http.MethodPost, "/orders", "409")))
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewOrderMetrics(reg).CheckoutFailed("EMPTY_CART")

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `marketplace_checkout_total{outcome="EMPTY_CART"} 1`)
}
