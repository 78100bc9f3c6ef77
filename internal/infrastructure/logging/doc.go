// Package logging provides structured logging and the error log sink.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the application, and a rotating
// file sink that receives the process-wide error log.
//
// # Configuration
//
// Logging is configured via the logging section of the config file:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # json, text
//	  output: "stderr"   # stdout, stderr
//	  file:
//	    max_size: 100    # megabytes before the error log rotates
//	    max_backups: 3
//	    max_age: 28      # days
//	    compress: false
//
// # Usage
//
//	logger := logging.New(cfg.Logging(), "1.0.0")
//	logger.Info("starting", "root", root)
//
//	sink := logging.OpenSink("/srv/app/logs/error.log", cfg.Logging().File)
//	defer sink.Close()
//	log.SetOutput(sink)
//
// # Security
//
// Never log secrets, tokens or passwords.
package logging
