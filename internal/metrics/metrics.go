package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TokensIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perfpredict_tokens_issued_total",
			Help: "Bearer tokens issued, by flow",
		},
		[]string{"flow"},
	)

	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perfpredict_auth_failures_total",
			Help: "Authentication failures, by reason",
		},
		[]string{"reason"},
	)

	Predictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perfpredict_predictions_total",
			Help: "Prediction requests forwarded to the model service, by outcome",
		},
		[]string{"outcome"},
	)
)
