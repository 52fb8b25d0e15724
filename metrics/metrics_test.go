package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Login(LoginOK)
	m.Login(LoginRejected)
	m.Login(LoginRejected)
	m.MenuUpdate("ADD", true)
	m.MenuUpdate("ADD", false)
	m.OrderSubmitted("DINE_IN", 2500)
	m.OrderSubmitted("TAKE_OUT", 500)
	m.ObserveRPC("/restaurant.MenuService/GetMenu", "OK", time.Millisecond)

	if got := testutil.ToFloat64(m.logins.WithLabelValues(LoginRejected)); got != 2 {
		t.Errorf("rejected logins = %v", got)
	}
	if got := testutil.ToFloat64(m.menuUpdates.WithLabelValues("ADD", "rejected")); got != 1 {
		t.Errorf("rejected updates = %v", got)
	}
	if got := testutil.ToFloat64(m.orderCents); got != 3000 {
		t.Errorf("subtotal cents = %v", got)
	}
	if got := testutil.ToFloat64(m.rpcRequests.WithLabelValues("/restaurant.MenuService/GetMenu", "OK")); got != 1 {
		t.Errorf("rpc count = %v", got)
	}
}

func TestGaugeAndHandler(t *testing.T) {
	m := New()
	live := 3
	m.Gauge("sessions_live", "Live sessions.", func() float64 { return float64(live) })

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "bistro_sessions_live 3") {
		t.Errorf("gauge missing from scrape:\n%s", rec.Body.String())
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Login(LoginOK)
	m.MenuUpdate("ADD", true)
	m.OrderSubmitted("DINE_IN", 1)
	m.ObserveRPC("x", "OK", 0)
	m.Outbox(OutboxPublished)
	m.Gauge("x", "x", func() float64 { return 0 })
}
