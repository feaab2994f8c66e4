package app

import (
	"github.com/qj0r9j0vc2/modlog-bridge/internal/infrastructure/observability"
)

// setupTelemetry initializes OpenTelemetry tracing and metrics.
func (app *Application) setupTelemetry() error {
	telemetry, err := observability.NewTelemetry(observability.TelemetryOptions{
		ServiceName:    observability.ServiceName,
		ServiceVersion: Version,
		OTLPEndpoint:   app.config.Telemetry.OTLPEndpoint,
		Insecure:       app.config.Telemetry.Insecure,
	})
	if err != nil {
		return err
	}

	app.telemetry = telemetry

	app.logger.Info("telemetry initialized",
		"service", observability.ServiceName,
		"metrics_enabled", true,
		"tracing_enabled", telemetry.TracingEnabled,
	)

	return nil
}
