package otelx

import (
	"context"
	"testing"

	"github.com/bakkerme/rctbc-bins/internal/config"
)

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(context.Background(), nil, config.OTelEnvConfig{Enabled: false})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if shutdown != nil {
		t.Fatalf("expected nil shutdown when disabled")
	}
}

func TestProtocolAndEndpointDefaults(t *testing.T) {
	cases := []struct {
		cfg          config.OTelEnvConfig
		wantProtocol string
		wantEndpoint string
	}{
		{config.OTelEnvConfig{}, "grpc", "localhost:4317"},
		{config.OTelEnvConfig{Protocol: "HTTP"}, "http/protobuf", "localhost:4318"},
		{config.OTelEnvConfig{Protocol: "grpc", Endpoint: "collector:4317"}, "grpc", "collector:4317"},
	}
	for _, tc := range cases {
		if got := protocolOrDefault(tc.cfg); got != tc.wantProtocol {
			t.Fatalf("protocolOrDefault(%+v) = %q, want %q", tc.cfg, got, tc.wantProtocol)
		}
		if got := endpointOrDefault(tc.cfg); got != tc.wantEndpoint {
			t.Fatalf("endpointOrDefault(%+v) = %q, want %q", tc.cfg, got, tc.wantEndpoint)
		}
	}
}

func TestNewTraceExporterRejectsUnknownProtocol(t *testing.T) {
	if _, err := newTraceExporter(context.Background(), config.OTelEnvConfig{Protocol: "carrier-pigeon"}); err == nil {
		t.Fatalf("expected error for unknown protocol")
	}
}
