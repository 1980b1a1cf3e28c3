package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	RequestCounter      metric.Int64Counter
	RequestDuration     metric.Float64Histogram
	WidgetRenders       metric.Int64Counter
	SettingsSaves       metric.Int64Counter
	ValidationErrors    metric.Int64Counter
	ConfigurationErrors metric.Int64Counter
	CircuitBreakerState metric.Int64Counter
	AuditEventsLogged   metric.Int64Counter
	DatabaseOperations  metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics(serviceName string) (*Metrics, error) {
	meter := otel.Meter(serviceName)

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	widgetRenders, err := meter.Int64Counter(
		"widget.renders.total",
		metric.WithDescription("Head render decisions by outcome"),
	)
	if err != nil {
		return nil, err
	}

	settingsSaves, err := meter.Int64Counter(
		"settings.saves.total",
		metric.WithDescription("Saved settings submissions"),
	)
	if err != nil {
		return nil, err
	}

	validationErrors, err := meter.Int64Counter(
		"settings.validation_errors.total",
		metric.WithDescription("Validation errors reported to admins"),
	)
	if err != nil {
		return nil, err
	}

	configurationErrors, err := meter.Int64Counter(
		"widget.configuration_errors.total",
		metric.WithDescription("Payloads built from incomplete credentials"),
	)
	if err != nil {
		return nil, err
	}

	circuitBreakerState, err := meter.Int64Counter(
		"circuit_breaker.state_changes",
		metric.WithDescription("Circuit breaker state changes"),
	)
	if err != nil {
		return nil, err
	}

	auditEventsLogged, err := meter.Int64Counter(
		"audit.events.logged",
		metric.WithDescription("Total audit events logged"),
	)
	if err != nil {
		return nil, err
	}

	databaseOperations, err := meter.Int64Counter(
		"database.operations.total",
		metric.WithDescription("Total database operations"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:      requestCounter,
		RequestDuration:     requestDuration,
		WidgetRenders:       widgetRenders,
		SettingsSaves:       settingsSaves,
		ValidationErrors:    validationErrors,
		ConfigurationErrors: configurationErrors,
		CircuitBreakerState: circuitBreakerState,
		AuditEventsLogged:   auditEventsLogged,
		DatabaseOperations:  databaseOperations,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordWidgetRender records whether the embed was emitted or suppressed
func (m *Metrics) RecordWidgetRender(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.WidgetRenders.Add(ctx, 1, metric.WithAttributes(attribute.String("widget.outcome", outcome)))
}

func (m *Metrics) RecordSettingsSave(ctx context.Context, integrated bool, validationErrors int) {
	if m == nil {
		return
	}
	m.SettingsSaves.Add(ctx, 1, metric.WithAttributes(attribute.Bool("settings.integrated", integrated)))
	if validationErrors > 0 {
		m.ValidationErrors.Add(ctx, int64(validationErrors))
	}
}

func (m *Metrics) RecordConfigurationError(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.ConfigurationErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordCircuitBreakerState records circuit breaker state changes
func (m *Metrics) RecordCircuitBreakerState(service, state string) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("service", service),
		attribute.String("state", state),
	}

	m.CircuitBreakerState.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordAuditEvent records audit event logging
func (m *Metrics) RecordAuditEvent(action, resource string) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("audit.action", action),
		attribute.String("audit.resource", resource),
	}

	m.AuditEventsLogged.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordDatabaseOperation records database operation metrics
func (m *Metrics) RecordDatabaseOperation(operation, collection string, success bool) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("db.operation", operation),
		attribute.String("db.collection", collection),
		attribute.Bool("db.success", success),
	}

	m.DatabaseOperations.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}
