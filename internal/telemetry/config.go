package telemetry

// Config configures tracing export and, under Profiling, continuous
// profiling.
type Config struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// ServiceName is reported as service.name and as the profiler
	// application name.
	ServiceName string `mapstructure:"service_name" yaml:"service_name,omitempty"`

	// ServiceVersion is set from the build, not from configuration.
	ServiceVersion string `mapstructure:"-" yaml:"-"`

	// Endpoint is the OTLP/gRPC collector address, host:port.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure talks to the collector without TLS.
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate is the fraction of root sessions traced, 0 to 1.
	SampleRate float64 `mapstructure:"sample_rate" yaml:"sample_rate" validate:"gte=0,lte=1"`

	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// DefaultConfig returns tracing and profiling disabled, pointed at local
// collectors.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "openbbs",
		ServiceVersion: "dev",
		Endpoint:       "localhost:4317",
		Insecure:       true,
		SampleRate:     1.0,
		Profiling: ProfilingConfig{
			Endpoint:     "http://localhost:4040",
			ProfileTypes: []string{"cpu", "alloc_space", "inuse_space", "goroutines"},
		},
	}
}
