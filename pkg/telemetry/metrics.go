// See:
//   https://godoc.org/github.com/prometheus/client_golang/prometheus/push#Pusher.Push
//   https://prometheus.io/docs/instrumenting/pushing/
package telemetry

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics counts deployments per site.
type Metrics struct {
	deployments *MetricSet
}

// NewMetrics returns a Metrics object whose metric names are prefixed with app, e.g. webdeploy_deployment_started_total.
//
// Recommended usage is with https://github.com/weaveworks/prom-aggregation-gateway for aggregating counts and histograms
func NewMetrics(app string, counterOpts ...CounterOption) *Metrics {
	return &Metrics{
		deployments: NewMetricSet(app, "deployment", []string{"site"}, counterOpts...),
	}
}

// EnableHandlingTimeHistogram enables the deployment duration histogram.
func (m *Metrics) EnableHandlingTimeHistogram(opts ...HistogramOption) {
	m.deployments.EnableHandlingTimeHistogram(opts...)
}

func (m *Metrics) DeploymentStarted(site string) {
	m.deployments.Started([]string{site})
}

func (m *Metrics) DeploymentHandled(site string, startTime, endTime time.Time, status string) {
	m.deployments.Handled(startTime, endTime, status, []string{site})
}

func (m *Metrics) Describe(ch chan<- *prom.Desc) {
	m.deployments.Describe(ch)
}

func (m *Metrics) Collect(ch chan<- prom.Metric) {
	m.deployments.Collect(ch)
}

// pushBase can be something like http://pushgateway:9091 (for pushgateway)
// or http://pushgateway:9091/api/ui (for weaveworks/prom-aggregation-gateway)
func (m *Metrics) Push(pushBase, job string) error {
	return push.New(pushBase, job).
		Collector(m).
		Push()
}
