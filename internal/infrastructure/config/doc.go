// Package config loads the application configuration file.
//
// This package manages:
//   - Loading configuration from YAML files (.yaml, .yml)
//   - Overriding with environment variables
//   - Typed accessors with explicit absence for the known keys
//   - Passthrough attributes for everything else
//
// Recognised keys:
//
//	url-host: "https://example.net"
//	db:
//	  dsn: "sqlite:data/app.db"
//	  username: ""
//	  password: ""
//	  options: {}
//	php:
//	  error_log: "/logs/error.log"
//	  date_default_timezone_set: "America/Argentina/Buenos_Aires"
//	logging:
//	  level: "info"
//	  format: "text"
//	  output: "stderr"
//
// Security Considerations:
//   - Database credentials should be set via APPENV_DB_USERNAME and APPENV_DB_PASSWORD
//   - The password is masked in the String() snapshot
//
// Usage:
//
//	cfg, err := config.Load("configs/app.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if host, ok := cfg.URLHost(); ok {
//	    fmt.Println(host)
//	}
package config
