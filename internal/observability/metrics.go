package observability

const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"
	MEventsHandled           MetricKey = "events_handled_total"
)

// MetricSpec describes how a MetricKey is registered with a metrics backend.
type MetricSpec struct {
	Key       MetricKey
	Help      string
	LabelKeys []string
}

// Counters lists every counter the service emits.
var Counters = []MetricSpec{
	{Key: MUsecaseRequests, Help: "Total number of use case invocations.", LabelKeys: []string{"use_case", "outcome"}},
	{Key: MHTTPRequests, Help: "Total number of HTTP requests.", LabelKeys: []string{"method", "route", "status"}},
	{Key: MExternalRequests, Help: "Total number of calls to external peers.", LabelKeys: []string{"peer", "endpoint", "outcome"}},
	{Key: MEventsHandled, Help: "Total number of bus events handled by subscribers.", LabelKeys: []string{"event", "outcome"}},
}

// Histograms lists every histogram the service emits.
var Histograms = []MetricSpec{
	{Key: MUsecaseDuration, Help: "Duration of use case execution in seconds.", LabelKeys: []string{"use_case"}},
	{Key: MHTTPRequestDuration, Help: "Duration of HTTP requests in seconds.", LabelKeys: []string{"method", "route", "status"}},
	{Key: MExternalRequestDuration, Help: "Duration of calls to external peers in seconds.", LabelKeys: []string{"peer", "endpoint"}},
}
