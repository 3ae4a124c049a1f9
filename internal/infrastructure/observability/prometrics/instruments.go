package prometrics

import "github.com/Zhima-Mochi/minishop-storefront/internal/observability"

// Instruments registers every metric the service emits and returns them keyed
// for observability.New.
func Instruments(r Registry) (map[observability.MetricKey]observability.Counter, map[observability.MetricKey]observability.Histogram) {
	counters := map[observability.MetricKey]observability.Counter{
		observability.MUsecaseRequests: r.Counter(string(observability.MUsecaseRequests),
			"Total number of use case invocations.", "use_case", "outcome"),
		observability.MHTTPRequests: r.Counter(string(observability.MHTTPRequests),
			"Total number of HTTP requests.", "method", "route", "status"),
		observability.MExternalRequests: r.Counter(string(observability.MExternalRequests),
			"Calls to stores, caches and the event bus.", "peer", "endpoint", "outcome"),
		observability.MSagaSteps: r.Counter(string(observability.MSagaSteps),
			"Order placement saga steps by outcome.", "step", "outcome"),
		observability.MReservationIncomplete: r.Counter(string(observability.MReservationIncomplete),
			"Persisted orders whose stock reservation did not complete.", "reason"),
		observability.MBestEffortFailures: r.Counter(string(observability.MBestEffortFailures),
			"Swallowed failures of best-effort side effects.", "effect"),
	}
	histograms := map[observability.MetricKey]observability.Histogram{
		observability.MUsecaseDuration: r.Histogram(string(observability.MUsecaseDuration),
			"Duration of use case execution in seconds.", nil, "use_case"),
		observability.MHTTPRequestDuration: r.Histogram(string(observability.MHTTPRequestDuration),
			"Duration of HTTP requests in seconds.", nil, "method", "route", "status"),
		observability.MExternalRequestDuration: r.Histogram(string(observability.MExternalRequestDuration),
			"Duration of external calls in seconds.", nil, "peer", "endpoint"),
	}
	return counters, histograms
}
