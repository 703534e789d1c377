package logger

import (
	"fmt"
	"time"
)

// LogExport logs the outcome of one export sink
func LogExport(sink, location string, records int, err error) {
	logger := GetLogger().WithFields(map[string]interface{}{
		"sink":    sink,
		"records": records,
	})

	if err != nil {
		logger.WithError(err).Error("Export failed")
		return
	}
	logger.WithField("location", location).Info("Export completed")
}

// LogRateLimit logs a local limiter wait or a remote throttling signal
func LogRateLimit(source string, wait time.Duration) {
	GetLogger().WithFields(map[string]interface{}{
		"source":  source,
		"wait_ms": wait.Milliseconds(),
		"action":  "rate_limited",
	}).Warn("Rate limit reached, backing off")
}

// LogHarvestProgress logs how many profiles were collected so far
func LogHarvestProgress(query string, collected, target int) {
	percentage := 0.0
	if target > 0 {
		percentage = float64(collected) / float64(target) * 100
	}

	GetLogger().WithFields(map[string]interface{}{
		"query":      query,
		"collected":  collected,
		"target":     target,
		"percentage": fmt.Sprintf("%.1f%%", percentage),
	}).Info("Harvest progress")
}

// LogAbort logs why a harvest stopped together with what it kept
func LogAbort(reason string, records int, successful bool) {
	logger := GetLogger().WithFields(map[string]interface{}{
		"reason":  reason,
		"records": records,
	})
	if successful {
		logger.Info("Harvest stopped")
	} else {
		logger.Warn("Harvest stopped early")
	}
}

// LogComponentStart logs when a component starts
func LogComponentStart(component string, config map[string]interface{}) {
	logger := GetLogger().WithField("component", component)

	if len(config) > 0 {
		logger = logger.WithFields(config)
	}

	logger.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(component string, reason string) {
	GetLogger().WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// LogMetrics logs performance metrics
func LogMetrics(operation string, metrics map[string]interface{}) {
	fields := map[string]interface{}{
		"operation": operation,
		"type":      "metrics",
	}

	// Merge metrics into fields
	for k, v := range metrics {
		fields[k] = v
	}

	GetLogger().InfoWithFields("Performance metrics", fields)
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing (useful for testing)
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
