package telemetry

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/semconv/v1.13.0/httpconv"
	"go.opentelemetry.io/otel/trace"
)

// bodies beyond this are cut off in span attributes, dhlottery pages are large.
const maxBodyAttribute = 4096

// headers never copied into spans
var redactedHeaders = map[string]bool{
	"Cookie":     true,
	"Set-Cookie": true,
}

type restyInstrument struct {
	tracer   trace.Tracer
	requests metric.Int64Counter
}

func InstrumentResty(client *resty.Client, tracerName string) {
	requests, _ := Meter(tracerName).Int64Counter(
		"http_client_requests",
		metric.WithDescription("outbound requests by method and status"),
	)
	i := restyInstrument{
		tracer:   Tracer(tracerName),
		requests: requests,
	}
	client.OnBeforeRequest(i.onBeforeRequest)
	client.OnAfterResponse(i.onAfterResponse)
	client.OnError(i.onError)
}

func (i restyInstrument) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	ctx, _ := i.tracer.Start(req.Context(), req.Method)
	req.SetContext(ctx)
	return nil
}

func headerAttributes(out *[]attribute.KeyValue, prefix string, headers http.Header) {
	for header, values := range headers {
		if redactedHeaders[header] {
			continue
		}
		if len(values) == 1 {
			*out = append(*out, attribute.String(fmt.Sprintf("%s/header: %s", prefix, header), values[0]))
			continue
		}
		for idx, v := range values {
			*out = append(*out, attribute.String(fmt.Sprintf("%s/header: %s (%d)", prefix, header, idx), v))
		}
	}
}

func truncate(s string) string {
	if len(s) <= maxBodyAttribute {
		return s
	}
	return s[:maxBodyAttribute] + "...(truncated)"
}

func requestBodyAttribute(req *http.Request) attribute.KeyValue {
	if req == nil || req.GetBody == nil {
		return attribute.String("request/body", "")
	}
	body, err := req.GetBody()
	if err != nil {
		return attribute.String("request/body", fmt.Sprintf("failed to get request body: %s", err.Error()))
	}
	// GetBody is set but yields nothing for bodiless requests
	if body == nil {
		return attribute.String("request/body", "")
	}
	defer body.Close()
	contents, err := io.ReadAll(body)
	if err != nil {
		return attribute.String("request/body", fmt.Sprintf("failed to read request body: %s", err.Error()))
	}
	return attribute.String("request/body", truncate(string(contents)))
}

func (i restyInstrument) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	ctx := res.Request.Context()
	span := trace.SpanFromContext(ctx)
	defer span.End()

	span.SetAttributes(httpconv.ClientResponse(res.RawResponse)...)

	// setting request attributes here since res.Request.RawRequest is nil in onBeforeRequest
	span.SetName(fmt.Sprintf("http %s", res.Request.Method))
	span.SetAttributes(httpconv.ClientRequest(res.Request.RawRequest)...)

	var attrs []attribute.KeyValue
	headerAttributes(&attrs, "request", res.Request.Header)
	headerAttributes(&attrs, "response", res.Header())
	attrs = append(
		attrs,
		requestBodyAttribute(res.Request.RawRequest),
		attribute.String("response/body", truncate(res.String())),
	)
	span.SetAttributes(attrs...)

	i.record(ctx, res.Request.Method, fmt.Sprint(res.StatusCode()))
	return nil
}

func (i restyInstrument) onError(req *resty.Request, err error) {
	span := trace.SpanFromContext(req.Context())
	defer span.End()

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetName(fmt.Sprintf("http %s", req.Method))

	var attrs []attribute.KeyValue
	headerAttributes(&attrs, "request", req.Header)
	span.SetAttributes(attrs...)

	i.record(req.Context(), req.Method, "error")

	if req.RawRequest == nil {
		return
	}
	span.SetAttributes(httpconv.ClientRequest(req.RawRequest)...)
}

func (i restyInstrument) record(ctx context.Context, method, status string) {
	if i.requests == nil {
		return
	}
	i.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("status", status),
	))
}
