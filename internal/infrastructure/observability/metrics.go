package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics.
type Metrics struct {
	meter metric.Meter

	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPRequestsActive  metric.Int64UpDownCounter

	// Command metrics
	CommandsTotal   metric.Int64Counter
	CommandDuration metric.Float64Histogram

	// Chat metrics
	ChatEventsTotal metric.Int64Counter

	// Forum metrics
	ForumRequestsTotal     metric.Int64Counter
	ForumRequestDuration   metric.Float64Histogram
	CredentialRefreshTotal metric.Int64Counter
	CredentialRefreshTime  metric.Float64Histogram
	AuthRecoveriesTotal    metric.Int64Counter

	// Audit metrics
	InvocationsPrunedTotal metric.Int64Counter
}

// NewMetrics creates and registers all application metrics.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{meter: meter}

	var err error

	// HTTP metrics
	m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http.server.requests.total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http_requests_total: %w", err)
	}

	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http_request_duration: %w", err)
	}

	m.HTTPRequestsActive, err = meter.Int64UpDownCounter(
		"http.server.requests.active",
		metric.WithDescription("Number of active HTTP requests"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http_requests_active: %w", err)
	}

	// Command metrics
	m.CommandsTotal, err = meter.Int64Counter(
		"bridge.commands.total",
		metric.WithDescription("Total number of chat commands handled"),
		metric.WithUnit("{commands}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating commands_total: %w", err)
	}

	m.CommandDuration, err = meter.Float64Histogram(
		"bridge.command.duration",
		metric.WithDescription("Command handling duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating command_duration: %w", err)
	}

	// Chat metrics
	m.ChatEventsTotal, err = meter.Int64Counter(
		"bridge.chat.events.total",
		metric.WithDescription("Total number of chat events read"),
		metric.WithUnit("{events}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating chat_events_total: %w", err)
	}

	// Forum metrics
	m.ForumRequestsTotal, err = meter.Int64Counter(
		"forum.requests.total",
		metric.WithDescription("Total number of forum API requests"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating forum_requests_total: %w", err)
	}

	m.ForumRequestDuration, err = meter.Float64Histogram(
		"forum.request.duration",
		metric.WithDescription("Forum API request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating forum_request_duration: %w", err)
	}

	m.CredentialRefreshTotal, err = meter.Int64Counter(
		"forum.credential.refresh.total",
		metric.WithDescription("Total number of access token renewals"),
		metric.WithUnit("{refreshes}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating credential_refresh_total: %w", err)
	}

	m.CredentialRefreshTime, err = meter.Float64Histogram(
		"forum.credential.refresh.duration",
		metric.WithDescription("Access token renewal duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating credential_refresh_duration: %w", err)
	}

	m.AuthRecoveriesTotal, err = meter.Int64Counter(
		"forum.credential.recoveries.total",
		metric.WithDescription("Total number of recoveries from a rejected credential"),
		metric.WithUnit("{recoveries}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth_recoveries_total: %w", err)
	}

	// Audit metrics
	m.InvocationsPrunedTotal, err = meter.Int64Counter(
		"audit.invocations.pruned.total",
		metric.WithDescription("Total number of audit records removed by retention"),
		metric.WithUnit("{records}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating invocations_pruned_total: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.Int("http.status_code", statusCode),
	}

	m.HTTPRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.HTTPRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordCommand records one handled command.
func (m *Metrics) RecordCommand(ctx context.Context, command, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("command", command),
		attribute.String("outcome", outcome),
	)

	m.CommandsTotal.Add(ctx, 1, attrs)
	m.CommandDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordChatEvent records a chat event read by the event loop.
func (m *Metrics) RecordChatEvent(ctx context.Context, actionable bool) {
	m.ChatEventsTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("actionable", actionable)))
}

// RecordAuthRecovery records the result of the refresh that follows a rejection.
func (m *Metrics) RecordAuthRecovery(ctx context.Context, ok bool) {
	m.AuthRecoveriesTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", ok)))
}

// RecordCredentialRefresh records an access token renewal attempt.
func (m *Metrics) RecordCredentialRefresh(ctx context.Context, ok bool, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.Bool("success", ok))

	m.CredentialRefreshTotal.Add(ctx, 1, attrs)
	m.CredentialRefreshTime.Record(ctx, duration.Seconds(), attrs)
}

// RecordForumRequest records a forum API call. status is 0 when no response arrived.
func (m *Metrics) RecordForumRequest(ctx context.Context, endpoint string, status int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.Int("status", status),
	)

	m.ForumRequestsTotal.Add(ctx, 1, attrs)
	m.ForumRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordInvocationsPruned records audit records removed by the retention job.
func (m *Metrics) RecordInvocationsPruned(ctx context.Context, deleted int64) {
	if deleted > 0 {
		m.InvocationsPrunedTotal.Add(ctx, deleted)
	}
}
