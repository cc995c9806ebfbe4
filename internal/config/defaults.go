package config

import "time"

// DefaultTablePath is the workbook the service expects in its working directory.
const DefaultTablePath = "Unified_License_Verification_Result.xlsx"

// SystemDefaults returns built-in server, data and telemetry settings.
func SystemDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":5000",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxUploadBytes:  32 << 20,
		},
		Data: DataConfig{
			TablePath: DefaultTablePath,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			Endpoint:    "localhost:4317",
			Protocol:    "grpc",
			ServiceName: "licverify",
			SampleRate:  1.0,
		},
	}
}
