/*
Package observability turns session lifecycle events into logs and Prometheus metrics.

Both are delivered as domain.LifecycleHooks so they can be chained together and
handed to the registry, the cart store and the workflow engine:

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := domain.ChainHooks(metrics.Hooks(), observability.LogHooks(logger))
*/
package observability
