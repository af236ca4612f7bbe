// Package metrics records generation metrics.
//
// Components receive a Recorder and never check for nil: the default is NoopRecorder,
// whose methods do nothing. When metrics are configured the CLI injects a
// PrometheusRecorder instead:
//
//	reg := prom.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	gen := generate.New(s, out, generate.WithRecorder(rec))
//
// A batch build writes the registry in the node-exporter textfile format after the run
// (WriteTextfile); watch mode can serve it over HTTP (HTTPHandler).
package metrics
