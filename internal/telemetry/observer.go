// Package telemetry records tool invocations into OpenTelemetry.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"gusto-mcp/internal/tools"
)

// ToolObserver turns invocation observations into metrics and spans.
type ToolObserver struct {
	tracer trace.Tracer

	invocations metric.Int64Counter
	latency     metric.Float64Histogram
}

// NewToolObserver creates instruments on meter. tracer may be nil.
func NewToolObserver(meter metric.Meter, tracer trace.Tracer) (*ToolObserver, error) {
	invocations, err := meter.Int64Counter(
		"gusto_mcp.tool.invocations",
		metric.WithDescription("Number of tool invocations"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		"gusto_mcp.tool.latency",
		metric.WithDescription("Tool latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	return &ToolObserver{
		tracer:      tracer,
		invocations: invocations,
		latency:     latency,
	}, nil
}

// ObserveInvoke records one invocation.
func (o *ToolObserver) ObserveInvoke(obs tools.Observation) {
	if o == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("tool_name", obs.Tool),
		attribute.Bool("success", obs.Success),
	}
	if obs.ErrorKind != "" {
		attrs = append(attrs, attribute.String("error_kind", obs.ErrorKind))
	}

	ctx := context.Background()
	options := metric.WithAttributes(attrs...)
	o.invocations.Add(ctx, 1, options)
	o.latency.Record(ctx, obs.Duration.Seconds(), options)

	if o.tracer == nil {
		return
	}
	end := time.Now()
	_, span := o.tracer.Start(ctx, "tool.invoke",
		trace.WithTimestamp(end.Add(-obs.Duration)),
		trace.WithAttributes(attrs...),
	)
	if obs.Success {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, obs.ErrorKind)
	}
	span.End(trace.WithTimestamp(end))
}

var _ tools.Observer = (*ToolObserver)(nil)
