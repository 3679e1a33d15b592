// Package logging provides structured logging for Sentrycam Core.
//
// It wraps the standard log/slog package so every entry carries the service
// name and build version, and so output format and level come from the
// runtime config:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Components that need a logger declare their own narrow interface
// (Debug/Info/Warn/Error) and accept anything that satisfies it, so domain
// packages do not import this package directly.
//
// Never log secrets: network passphrases, the messaging auth token, and the
// provisioning PIN must not appear in log output.
package logging
