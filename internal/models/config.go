package models

import "encoding/json"

// ConfigError reports an invalid or incomplete startup configuration.
type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}

// ControlConfig locates the bot platform's control connection endpoint.
type ControlConfig struct {
	URL string `json:"url"`
}

// WhatsAppConfig holds the Cloud API credentials and webhook secrets.
type WhatsAppConfig struct {
	APIBaseURL    string `json:"api_base_url"`
	APIVersion    string `json:"api_version"`
	AccessToken   string `json:"access_token"`
	VerifyToken   string `json:"verify_token"`
	PhoneNumberID string `json:"phone_number_id"`
	AppSecret     string `json:"app_secret"`
	TimeoutSec    int    `json:"timeoutSec"`
}

type ServerConfig struct {
	Port            int `json:"port"`
	ReadTimeoutSec  int `json:"readTimeoutSec"`
	WriteTimeoutSec int `json:"writeTimeoutSec"`
	IdleTimeoutSec  int `json:"idleTimeoutSec"`
}

// TracingConfig configures the OpenTelemetry exporter.
type TracingConfig struct {
	ServiceName    string  `json:"service_name"`
	ServiceVersion string  `json:"service_version"`
	Environment    string  `json:"environment"`
	OTLPEndpoint   string  `json:"otlp_endpoint"`
	SampleRate     float64 `json:"sample_rate"`
	Enabled        bool    `json:"enabled"`
	UseStdout      bool    `json:"use_stdout"`
}

// Config is the full startup configuration. Bot is the opaque behavior
// blob forwarded unmodified inside the init handshake.
type Config struct {
	Control      ControlConfig   `json:"control"`
	WhatsApp     WhatsAppConfig  `json:"whatsapp"`
	Bot          json.RawMessage `json:"bot"`
	Server       ServerConfig    `json:"server"`
	Tracing      TracingConfig   `json:"tracing"`
	LogLevel     string          `json:"logLevel"`
	KeepaliveSec int             `json:"keepaliveSec"`
}
