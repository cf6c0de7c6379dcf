package impl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bakkerme/rctbc-bins/internal/core"
	"github.com/bakkerme/rctbc-bins/internal/sources/council"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/bakkerme/rctbc-bins/internal/sources/council"

// Fetcher issues a single GET per call. Retries are left to the next scheduled refresh.
type Fetcher struct {
	client      *http.Client
	baseURL     string
	userAgent   string
	// maxBodySize caps the read when positive; zero reads the whole body.
	maxBodySize int64
	tracer      trace.Tracer
}

func NewFetcher(timeout time.Duration, userAgent, baseURL string) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = "rctbc-bins/0.1"
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = council.DefaultBaseURL
	}
	return &Fetcher{
		client:      &http.Client{Timeout: timeout},
		baseURL:     strings.TrimSpace(baseURL),
		userAgent:   userAgent,
		tracer:      otel.Tracer(tracerName),
	}
}

func (f *Fetcher) Fetch(ctx context.Context, address core.AddressKey) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	target := council.BuildURL(f.baseURL, address)

	ctx, span := f.tracer.Start(ctx, "council.fetch", trace.WithAttributes(
		attribute.String("council.property_number", address.PropertyNumber),
		attribute.String("council.postcode", address.Postcode),
		attribute.String("http.url", target),
	))
	defer span.End()
	if runID := core.RunIDFromContext(ctx); runID != "" {
		span.SetAttributes(attribute.String("run.id", runID))
	}

	body, status, err := f.get(ctx, target)
	if status != 0 {
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, target string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request: %v", core.ErrFetch, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", core.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("%w: status %s", core.ErrFetch, resp.Status)
	}

	var reader io.Reader = resp.Body
	if f.maxBodySize > 0 {
		reader = io.LimitReader(resp.Body, f.maxBodySize+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read body: %v", core.ErrFetch, err)
	}
	if f.maxBodySize > 0 && int64(len(body)) > f.maxBodySize {
		return nil, resp.StatusCode, fmt.Errorf("%w: response too large", core.ErrFetch)
	}
	return body, resp.StatusCode, nil
}
