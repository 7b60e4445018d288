package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		sweepPassesTotal,
		subscriptionsExpiredTotal,
		expiryWarningsTotal,
		accessGrantsTotal,
		accessRevokesTotal,
		subscribersGauge,
	)
}

var (
	sweepPassesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sweep_passes_total",
			Help: "Completed expiry sweep passes.",
		},
	)

	subscriptionsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_expired_total",
			Help: "Subscribers transitioned to inactive by the sweep.",
		},
	)

	expiryWarningsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "expiry_warnings_total",
			Help: "Advance-expiry warnings sent.",
		},
	)

	accessGrantsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_grants_total",
			Help: "Group access grants by result.",
		},
		[]string{"result"},
	)

	accessRevokesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_revokes_total",
			Help: "Group access revokes by result.",
		},
		[]string{"result"},
	)

	subscribersGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "subscribers_total",
			Help: "Current number of subscribers by status.",
		},
		[]string{"status"},
	)
)

func IncSweepPass()            { sweepPassesTotal.Inc() }
func IncSubscriptionsExpired() { subscriptionsExpiredTotal.Inc() }
func IncExpiryWarning()        { expiryWarningsTotal.Inc() }
func IncAccessGrant(ok bool)   { accessGrantsTotal.WithLabelValues(result(ok)).Inc() }
func IncAccessRevoke(ok bool)  { accessRevokesTotal.WithLabelValues(result(ok)).Inc() }
func SetSubscribers(status string, n int) {
	subscribersGauge.WithLabelValues(norm(status)).Set(float64(n))
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
