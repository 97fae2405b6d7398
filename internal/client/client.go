// Package client is the typed HTTP client for the menu and order backend.
//
// Every method maps to exactly one HTTP request. The client never retries,
// caches or applies its own deadline: cancellation comes from the context.
// Non-2xx responses are returned as *ServerError, requests that did not
// complete as *TransportError.
package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/canteen/pkg/requestid"
)

const instrumentationName = "github.com/xenking/canteen/internal/client"

// DefaultBaseURL is the backend address used when none is configured.
const DefaultBaseURL = "http://localhost:8000/api"

type options struct {
	httpClient     *http.Client
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option configures a Client.
type Option func(*options)

// WithHTTPClient replaces the default instrumented HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// WithMeterProvider sets the meter provider. Defaults to the global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// Client talks to the backend API rooted at a base URL such as
// http://localhost:8000/api. It is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	tracer  trace.Tracer

	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, errors.Errorf("base url %q must be an absolute http(s) url", baseURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")

	o := options{
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithTracerProvider(o.tracerProvider),
				otelhttp.WithMeterProvider(o.meterProvider),
			),
		}
	}

	meter := o.meterProvider.Meter(instrumentationName)
	requests, err := meter.Int64Counter("canteen.client.requests",
		metric.WithDescription("Backend requests by operation and status code"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create requests counter")
	}
	duration, err := meter.Float64Histogram("canteen.client.duration",
		metric.WithDescription("Backend request duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create duration histogram")
	}

	return &Client{
		baseURL:  u,
		http:     o.httpClient,
		tracer:   o.tracerProvider.Tracer(instrumentationName),
		requests: requests,
		duration: duration,
	}, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// request describes one backend call.
type request struct {
	op     string
	method string
	path   string
	query  url.Values
	body   func(e *jx.Encoder)
}

// do performs req. For a 2xx response with decode set, the body is handed to
// decode; the returned error is then the decode error.
func (c *Client) do(ctx context.Context, req request, decode func(d *jx.Decoder) error) (rerr error) {
	ctx, span := c.tracer.Start(ctx, req.op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.method),
			attribute.String("url.path", req.path),
		),
	)
	defer span.End()

	start := time.Now()
	status := 0
	defer func() {
		attrs := metric.WithAttributes(
			attribute.String("op", req.op),
			attribute.Int("http.response.status_code", status),
		)
		c.requests.Add(ctx, 1, attrs)
		c.duration.Record(ctx, time.Since(start).Seconds(), attrs)

		lg := zctx.From(ctx)
		fields := []zap.Field{
			zap.String("op", req.op),
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
		}
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
			lg.Debug("Backend request failed", append(fields, zap.Error(rerr))...)
			return
		}
		lg.Debug("Backend request", fields...)
	}()

	u := *c.baseURL
	u.Path += req.path
	u.RawQuery = req.query.Encode()

	var body io.Reader
	if req.body != nil {
		var e jx.Encoder
		req.body(&e)
		body = bytes.NewReader(e.Bytes())
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return errors.Wrapf(err, "%s: build request", req.op)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if id := requestid.FromContext(ctx); id != "" {
		httpReq.Header.Set(requestid.Header, id)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return &TransportError{Op: req.op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	status = resp.StatusCode
	span.SetAttributes(attribute.Int("http.response.status_code", status))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: req.op, Err: errors.Wrap(err, "read body")}
	}

	if status < 200 || status > 299 {
		return &ServerError{
			Op:         req.op,
			StatusCode: status,
			Body:       string(bytes.TrimSpace(data)),
		}
	}

	if decode == nil {
		return nil
	}
	if err := decode(jx.DecodeBytes(data)); err != nil {
		return errors.Wrap(err, req.op)
	}
	return nil
}
