// telemetry provides deployment metrics. Supported metrics includes:
// - deployments started(*_deployment_started_total)
// - success/failure count(*_deployment_handled_total)
// - duration histogram(*_deployment_handling_seconds_bucket)
//
// A build step is short-lived, so the metrics are pushed to a Prometheus push gateway rather than scraped.
package telemetry
