// Package telemetry provides blockmover's structured logging, tracing and
// metrics surface: a leveled logger shaped like apoc/log's level/params
// API, backed by the standard library logger, plus an otel tracer and
// meter pair for transfer spans and metrics. Callers open spans and record
// metrics themselves; transfer.Execute does neither.
//
// The tracer and meter come from otel's global providers, which are no-op
// unless the process installs its own, and the logger writes info-level
// and above to stdout by default, so importing this package never requires
// wiring a collector.
package telemetry

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Level mirrors apoc/log.Level's ordering.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

var (
	currentLevel = int32(LevelInfo)
	logger       = log.New(os.Stdout, "", log.LstdFlags)

	tracer = otel.Tracer("github.com/nornicdb/blockmover/transfer")
	meter  = otel.Meter("github.com/nornicdb/blockmover/transfer")
)

// SetLevel changes the minimum level logged from this point on.
func SetLevel(l Level) { atomic.StoreInt32(&currentLevel, int32(l)) }

// GetLevel returns the current minimum level.
func GetLevel() Level { return Level(atomic.LoadInt32(&currentLevel)) }

// Fields carries structured key/value pairs alongside a log line, the
// same role apoc/log's params map[string]interface{} plays.
type Fields map[string]any

func Debug(message string, fields Fields) { logMessage(LevelDebug, message, fields) }
func Info(message string, fields Fields)  { logMessage(LevelInfo, message, fields) }
func Warn(message string, fields Fields)  { logMessage(LevelWarn, message, fields) }
func Error(message string, fields Fields) { logMessage(LevelError, message, fields) }

func logMessage(level Level, message string, fields Fields) {
	if level < GetLevel() {
		return
	}
	line := fmt.Sprintf("%s: %s", level, message)
	if len(fields) > 0 {
		line += fmt.Sprintf(" %v", fields)
	}
	logger.Println(line)
}

// StartTransferSpan opens a span named for a single Execute call, tagged
// with the resolved strategy and block count. Callers must End() the
// returned span themselves once the batch's completion channel fires.
func StartTransferSpan(ctx context.Context, strategy string, blockCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "transfer.execute",
		trace.WithAttributes(
			attribute.String("strategy", strategy),
			attribute.Int("block_count", blockCount),
		),
	)
}

// Metrics bundles the counters/histogram a caller records, through
// RecordTransfer, for each completed Execute call.
// Constructed once per process via NewMetrics; a zero Metrics value is
// unsafe to use since its instruments are nil.
type Metrics struct {
	bytesMoved   metric.Int64Counter
	transfersRun metric.Int64Counter
	latency      metric.Float64Histogram
}

// NewMetrics registers blockmover's instruments against the global meter
// provider. Safe to call more than once; otel instrument registration is
// idempotent per name within a provider.
func NewMetrics() (*Metrics, error) {
	bytesMoved, err := meter.Int64Counter("blockmover.bytes_moved",
		metric.WithDescription("total bytes copied across all transfer strategies"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: register bytes_moved counter: %w", err)
	}
	transfersRun, err := meter.Int64Counter("blockmover.transfers_run",
		metric.WithDescription("count of Execute calls by resolved strategy"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: register transfers_run counter: %w", err)
	}
	latency, err := meter.Float64Histogram("blockmover.transfer_latency_ms",
		metric.WithDescription("wall-clock time from Execute call to completion signal"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: register transfer_latency_ms histogram: %w", err)
	}
	return &Metrics{bytesMoved: bytesMoved, transfersRun: transfersRun, latency: latency}, nil
}

// RecordTransfer records one completed Execute call's byte count and
// duration, tagged by strategy.
func (m *Metrics) RecordTransfer(ctx context.Context, strategy string, bytes int64, dur time.Duration) {
	attrs := metric.WithAttributes(attribute.String("strategy", strategy))
	m.bytesMoved.Add(ctx, bytes, attrs)
	m.transfersRun.Add(ctx, 1, attrs)
	m.latency.Record(ctx, float64(dur.Microseconds())/1000.0, attrs)
}
