/*
Package observability turns dispatcher lifecycle events into Prometheus metrics and
structured log lines.

Hooks from several sources can be combined with Join and passed to the dispatcher:

	metrics := observability.NewMetrics()
	hooks := observability.Join(metrics.Hooks(), observability.LogHooks(logger))
	d, err := dispatch.New(table, reg, sessions, users, transport, dispatch.WithHooks(hooks))
*/
package observability
