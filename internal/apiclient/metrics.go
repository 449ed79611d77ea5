package apiclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelflife_client_requests_total",
			Help: "API requests issued by the client, by outcome",
		},
		[]string{"method", "outcome"},
	)

	refreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelflife_client_token_refresh_total",
			Help: "Access token refresh attempts, by result",
		},
		[]string{"result"},
	)
)

func outcome(status int) string {
	switch {
	case status == 0:
		return "network"
	case status < 300:
		return "ok"
	case status < 500:
		return "client_error"
	}
	return "server_error"
}
