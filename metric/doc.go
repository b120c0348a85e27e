// Package metric exports planner metrics to Prometheus.
package metric
