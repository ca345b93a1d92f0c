package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(registrationsTotal, compensationsTotal, subscriptionsExpired)
}

var (
	registrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchhub_registrations_total",
			Help: "Registration attempts by stage and outcome.",
		},
		[]string{"stage", "outcome"},
	)

	compensationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "watchhub_identity_compensations_total",
			Help: "Identities deleted after a failed profile insert.",
		},
	)

	subscriptionsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "watchhub_subscriptions_expired_total",
			Help: "Subscriptions moved to vencida by the scheduler.",
		},
	)
)

// IncRegistration stage: begin, materialize, admin. outcome: ok или код ошибки.
func IncRegistration(stage, outcome string) {
	registrationsTotal.WithLabelValues(norm(stage), norm(outcome)).Inc()
}

// IncCompensation учитывает удаление identity при откате.
func IncCompensation() {
	compensationsTotal.Inc()
}

// AddExpired учитывает подписки, переведенные в vencida.
func AddExpired(n int64) {
	if n > 0 {
		subscriptionsExpired.Add(float64(n))
	}
}
