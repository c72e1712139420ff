// Package telemetry wires OpenTelemetry tracing for the parser, the analyzer
// and the upload history database.
package telemetry

import (
	"os"
	"strconv"
	"strings"
)

// DefaultServiceName is reported when OTEL_SERVICE_NAME is unset.
const DefaultServiceName = "g1heapviz"

// Config holds the tracing configuration, read from the standard OTEL_*
// environment variables.
type Config struct {
	Enabled        bool              // OTEL_ENABLED
	ServiceName    string            // OTEL_SERVICE_NAME
	ServiceVersion string            // OTEL_SERVICE_VERSION
	Endpoint       string            // OTEL_EXPORTER_OTLP_ENDPOINT
	Protocol       string            // OTEL_EXPORTER_OTLP_PROTOCOL: grpc or http/protobuf
	Headers        map[string]string // OTEL_EXPORTER_OTLP_HEADERS
	Insecure       bool              // OTEL_EXPORTER_OTLP_INSECURE
	Sampler        string            // OTEL_TRACES_SAMPLER
	SamplerArg     string            // OTEL_TRACES_SAMPLER_ARG
	ResourceAttrs  map[string]string // OTEL_RESOURCE_ATTRIBUTES
}

// LoadFromEnv loads configuration from the process environment.
func LoadFromEnv() *Config {
	return loadFrom(os.Getenv)
}

func loadFrom(getenv func(string) string) *Config {
	or := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}
	flag := func(key string) bool {
		b, _ := strconv.ParseBool(getenv(key))
		return b
	}

	return &Config{
		Enabled:        flag("OTEL_ENABLED"),
		ServiceName:    or("OTEL_SERVICE_NAME", DefaultServiceName),
		ServiceVersion: or("OTEL_SERVICE_VERSION", "unknown"),
		Endpoint:       getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Protocol:       strings.ToLower(or("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")),
		Headers:        parseKeyValuePairs(getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		Insecure:       flag("OTEL_EXPORTER_OTLP_INSECURE"),
		Sampler:        getenv("OTEL_TRACES_SAMPLER"),
		SamplerArg:     getenv("OTEL_TRACES_SAMPLER_ARG"),
		ResourceAttrs:  parseKeyValuePairs(getenv("OTEL_RESOURCE_ATTRIBUTES")),
	}
}

// hostPort strips the scheme from the endpoint. plaintext is true for an
// http:// endpoint.
func (c *Config) hostPort() (endpoint string, plaintext bool) {
	switch {
	case strings.HasPrefix(c.Endpoint, "http://"):
		return strings.TrimPrefix(c.Endpoint, "http://"), true
	case strings.HasPrefix(c.Endpoint, "https://"):
		return strings.TrimPrefix(c.Endpoint, "https://"), false
	default:
		return c.Endpoint, false
	}
}

// parseKeyValuePairs parses "k1=v1,k2=v2". Values may contain '='.
func parseKeyValuePairs(s string) map[string]string {
	result := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		result[key] = strings.TrimSpace(value)
	}
	return result
}
