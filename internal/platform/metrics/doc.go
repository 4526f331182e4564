// Package metrics exposes job and batch activity as Prometheus metrics.
//
// A Collector observes the job manager (job.Observer) and subscribes to batch
// events (events.EventHandler). NewRouter serves its registry on /metrics
// next to a /healthz probe.
package metrics
