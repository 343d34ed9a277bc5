// Package metrics exposes Prometheus collectors for the consumer, producer,
// and schema registry.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Collectors tracks consume/produce/registry activity.
type Collectors struct {
	mu         sync.Mutex
	registerer prometheus.Registerer
	registered bool

	MessagesReceived   prometheus.Counter
	MessagesProcessed  *prometheus.CounterVec
	EventsPublished    *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	SchemaFetches      *prometheus.CounterVec
	SchemaCacheHits    prometheus.Counter
	SchemaCacheMisses  prometheus.Counter
	ProcessingSeconds  prometheus.Histogram
}

func newCounter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "schemabus",
		Name:      name,
		Help:      help,
	})
}

func newCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schemabus",
		Name:      name,
		Help:      help,
	}, labels)
}

// New creates the collector set. Pass nil to use the default registerer.
func New(registerer prometheus.Registerer) *Collectors {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &Collectors{
		registerer:         registerer,
		MessagesReceived:   newCounter("messages_received_total", "Total number of messages returned by queue polls"),
		MessagesProcessed:  newCounterVec("messages_processed_total", "Total number of consumed messages by outcome", []string{"result"}),
		EventsPublished:    newCounterVec("events_published_total", "Total number of produce calls by outcome", []string{"result"}),
		ValidationFailures: newCounterVec("validation_failures_total", "Total number of payloads that failed schema validation", []string{"side"}),
		SchemaFetches:      newCounterVec("schema_fetches_total", "Total number of backend schema fetches by outcome", []string{"result"}),
		SchemaCacheHits:    newCounter("schema_cache_hits_total", "Total number of schema lookups served from the cache"),
		SchemaCacheMisses:  newCounter("schema_cache_misses_total", "Total number of schema lookups that required a backend fetch"),
		ProcessingSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "schemabus",
			Name:      "processing_duration_seconds",
			Help:      "Time spent in the caller's processing handler",
			Buckets:   []float64{.005, .01, .05, .1, .5, 1, 5, 10, 30},
		}),
	}
}

// Register registers the collectors. Safe to call multiple times.
func (c *Collectors) Register() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.registered {
		return nil
	}

	collectors := []prometheus.Collector{
		c.MessagesReceived,
		c.MessagesProcessed,
		c.EventsPublished,
		c.ValidationFailures,
		c.SchemaFetches,
		c.SchemaCacheHits,
		c.SchemaCacheMisses,
		c.ProcessingSeconds,
	}
	for _, col := range collectors {
		if err := c.registerer.Register(col); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}

	c.registered = true
	return nil
}
