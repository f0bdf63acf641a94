package metricsx

// WithLabels builds a VictoriaMetrics metric name of the form
// `base{k1="v1",k2="v2",...}` from alternating key/value pairs, using the
// same name-splitting convention metrics.GetOrCreateCounter expects. If
// base already carries a `{...}` label set, the new pairs are appended to
// it rather than replacing it.
func WithLabels(base string, kv ...string) string {
	name, existing := splitName(base)
	return formatName(name, existing, kv...)
}
