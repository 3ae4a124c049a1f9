package observability

const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"

	MSagaSteps             MetricKey = "order_saga_steps_total"
	MReservationIncomplete MetricKey = "order_reservation_incomplete_total"
	MBestEffortFailures    MetricKey = "best_effort_failures_total"
)
