// Package logger provides the structured logging interface used across
// otwscraper.
//
// It wraps zerolog with a small interface:
//   - levels Debug, Info, Warn and Error
//   - structured fields through WithField, WithFields and the *WithFields methods
//   - colored console output on stderr, optional JSON file output
//   - a global logger for packages that are not handed one
//
// Basic Usage:
//
//	import "otwscraper/pkg/logger"
//
//	err := logger.Initialize(&config.LoggingConfig{
//	    Level: "info",
//	    File:  "otwscraper.log",
//	})
//
//	logger.Info("Harvest started")
//	logger.WithField("profile_url", url).Debug("Card skipped")
//	logger.WithError(err).Error("Export failed")
//
// Harvest helpers:
//
//	logger.LogHarvestProgress("QA Engineer Lille", 12, 50)
//	logger.LogAbort("RATE_LIMIT_DETECTED", 12, false)
//	logger.LogExport("csv", path, 12, nil)
//
// Tests use NewTestLogger to capture messages or NewNopLogger to drop them.
package logger
