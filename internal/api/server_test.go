package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bakkerme/rctbc-bins/internal/core"
	"github.com/bakkerme/rctbc-bins/internal/reading"
	"github.com/bakkerme/rctbc-bins/internal/runner"
	"github.com/bakkerme/rctbc-bins/internal/schedule"
	"github.com/bakkerme/rctbc-bins/internal/sources/council/mock"
)

const resolvedPage = `<html><body>
<p><strong>Monday</strong></p>
<p><strong>General 12/06/2023</strong></p>
<p><strong>green</strong></p>
</body></html>`

var tracked = core.NewAddressKey("12", "CF10 1AB")

func clock() time.Time {
	return time.Date(2023, time.June, 10, 0, 0, 0, 0, time.UTC)
}

func newTestServer(t *testing.T) (*Server, *mock.Fetcher) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fetcher := &mock.Fetcher{BodyByAddress: map[core.AddressKey]string{tracked: resolvedPage}}
	parser := schedule.NewParser(time.UTC)
	cache, err := reading.NewCache(tracked, fetcher, parser, logger)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	r := runner.New(logger, []*reading.Cache{cache}, runner.WithClock(clock))
	validate := func(ctx context.Context, number, postcode string) (reading.Entry, error) {
		return reading.Validate(ctx, fetcher, parser, number, postcode, clock, logger)
	}
	return NewServer(r, validate, logger), fetcher
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestSensorsBeforeAndAfterRefresh(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/v1/sensors", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var sensors []reading.Sensor
	if err := json.Unmarshal(rec.Body.Bytes(), &sensors); err != nil {
		t.Fatalf("decode sensors: %v", err)
	}
	if len(sensors) != 1 || sensors[0].State != string(core.NextCollectionUnknown) {
		t.Fatalf("sensors before refresh = %+v", sensors)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/refresh", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/api/v1/sensors/12/cf101ab", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var sensor reading.Sensor
	if err := json.Unmarshal(rec.Body.Bytes(), &sensor); err != nil {
		t.Fatalf("decode sensor: %v", err)
	}
	if sensor.State != string(core.NextCollectionAllBins) {
		t.Fatalf("State = %q", sensor.State)
	}
	if sensor.Attributes[reading.AttrCalendarColour] != "Green" {
		t.Fatalf("attributes = %+v", sensor.Attributes)
	}
}

func TestGetSensorUnknownAddress(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/v1/sensors/99/CF101AB", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/validate", `{"number":"12","postcode":"cf10 1ab"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var ok map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &ok); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ok["title"] != "RCTBC 12 CF101AB" {
		t.Fatalf("title = %q", ok["title"])
	}

	rec = do(t, s, http.MethodPost, "/api/v1/validate", `{"number":"1","postcode":"XX1 1XX"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var bad errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &bad); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if bad.Error != reading.ValidationInvalidAddress {
		t.Fatalf("error code = %q, want %q", bad.Error, reading.ValidationInvalidAddress)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/validate", `{"number":"","postcode":""}`)
	if err := json.Unmarshal(rec.Body.Bytes(), &bad); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if bad.Error != reading.ValidationUnknown {
		t.Fatalf("error code = %q, want %q", bad.Error, reading.ValidationUnknown)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"addresses":1`) {
		t.Fatalf("health = %d %s", rec.Code, rec.Body.String())
	}
}
