package importer

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Pipelines as used in the metric labels
const (
	PipelineWorkbook       = "workbook"
	PipelineEstablishments = "establishments"
	PipelineInstitutions   = "institutions"
)

var rowsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "import_rows_total",
		Help: "How many rows were processed by the importers, partitioned by pipeline and result.",
	},
	[]string{"pipeline", "result"},
)

var runsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "import_runs_total",
		Help: "How many imports were run, partitioned by pipeline.",
	},
	[]string{"pipeline"},
)

// Collectors returns the Prometheus metrics of the importers.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{rowsTotal, runsTotal}
}

// RecordRun counts a started import.
func RecordRun(pipeline string) {
	runsTotal.WithLabelValues(pipeline).Inc()
}

// RecordRow counts a processed row.
func RecordRow(pipeline string, applied bool) {
	result := "applied"
	if !applied {
		result = "skipped"
	}
	rowsTotal.WithLabelValues(pipeline, result).Inc()
}
