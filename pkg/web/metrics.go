package web

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	//nolint:revive
	batchCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "freighter",
		Subsystem: "http",
		Name:      "batch_requests_total",
		Help:      "The total number of batch requests",
	}, []string{"operation", "transfer"})

	//nolint:revive
	storageCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "freighter",
		Subsystem: "http",
		Name:      "storage_requests_total",
		Help:      "The total number of streamed object requests",
	}, []string{"action"})

	//nolint:revive
	multipartCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "freighter",
		Subsystem: "http",
		Name:      "multipart_actions_total",
		Help:      "The total number of multipart commit and abort requests",
	}, []string{"action"})
)
