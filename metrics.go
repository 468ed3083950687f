package main

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	connectionsAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "minihttpd",
			Name:      "connections_accepted_total",
			Help:      "Total number of accepted connections",
		},
	)

	activeWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "minihttpd",
			Name:      "active_workers",
			Help:      "Number of connection workers currently running",
		},
	)

	responsesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "minihttpd",
			Name:      "responses_total",
			Help:      "Total number of responses written, by status code",
		},
		[]string{"code"},
	)

	droppedRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "minihttpd",
			Name:      "dropped_requests_total",
			Help:      "Connections closed without a response",
		},
	)

	loginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "minihttpd",
			Name:      "login_attempts_total",
			Help:      "Login form submissions, by result",
		},
		[]string{"result"},
	)

	fileBytesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "minihttpd",
			Name:      "file_bytes_sent_total",
			Help:      "Body bytes sent for file responses",
		},
	)
)

func recordResponse(res *Response, sent int64) {
	responsesSent.WithLabelValues(strconv.Itoa(res.Status)).Inc()
	if res.File != nil {
		fileBytesSent.Add(float64(sent))
	}
}

func metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
