// Package logger provides structured logging utilities built on Go's
// standard slog package: a small factory with environment presets and a
// set of pre-built attributes for the concerns this codebase logs about
// (connections, TLS, certificates).
//
// Basic usage:
//
//	import "github.com/flowgate/flowgate/core/logger"
//
//	log := logger.New(
//		logger.WithJSONFormatter(),
//		logger.WithLevel(slog.LevelDebug),
//		logger.WithAttr(slog.String("service", "flowgate")),
//	)
//
//	log.Info("connection closed",
//		logger.Component("gate"),
//		logger.Peer("203.0.113.7:52114"),
//		logger.Proto("h2"),
//		logger.BytesIn(4096),
//		logger.BytesOut(12288),
//	)
//
// Attribute helpers follow the empty-Attr pattern for nil safety: a nil
// error or empty identifier produces an attribute slog silently drops, so
// call sites never need nil checks.
package logger
