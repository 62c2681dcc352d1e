package service

import (
	"github.com/rs/zerolog"
)

type Config struct {
	DatabaseUri              string `envconfig:"DATABASE_URI" required:"true"`
	DatabaseMaxConns         int    `envconfig:"DATABASE_MAX_CONNS" default:"10"`
	DatabaseMaxIdleConns     int    `envconfig:"DATABASE_MAX_IDLE_CONNS" default:"5"`
	DatabaseConnMaxLifetime  int    `envconfig:"DATABASE_CONN_MAX_LIFETIME" default:"1800"` // 30 minutes
	DatabaseConnectTimeout   int    `envconfig:"DATABASE_CONNECT_TIMEOUT" default:"60"`     // 60 seconds
	SentryDSN                string `envconfig:"SENTRY_DSN"`
	DatadogAgentUrl          string `envconfig:"DATADOG_AGENT_URL"`
	LogFilePath              string `envconfig:"LOG_FILE_PATH"`
	LogLevel                 string `envconfig:"LOG_LEVEL" default:"info"`
	PrometheusPushgatewayUrl string `envconfig:"PROMETHEUS_PUSHGATEWAY_URL"`
	RabbitMQUri              string `envconfig:"RABBITMQ_URI"`
	RabbitMQRecordExchange   string `envconfig:"RABBITMQ_RECORD_EXCHANGE" default:"counselhub_records"`
	InvoiceNumberPrefix      string `envconfig:"INVOICE_NUMBER_PREFIX" default:"INV"`
}

// Level parses LogLevel, falling back to info.
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
