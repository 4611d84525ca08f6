package ingest

import "github.com/prometheus/client_golang/prometheus"

// ingestedRecords counts processed candidates by channel and outcome
// (inserted, skipped, error). Both label sets are small fixed vocabularies,
// so cardinality stays bounded.
var ingestedRecords = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "alertsink_ingested_records_total",
		Help: "Total number of ingestion candidates processed.",
	},
	[]string{"channel", "outcome"},
)

func init() {
	prometheus.MustRegister(ingestedRecords)
}

func recordOutcome(channel, outcome string) {
	ingestedRecords.WithLabelValues(channel, outcome).Inc()
}
