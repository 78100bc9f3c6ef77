package config

import "errors"

// Sentinel errors for configuration loading.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, config.ErrFileNotFound) {
//	    // Handle missing file
//	}
var (
	// ErrFileNotFound indicates the configuration path does not exist.
	ErrFileNotFound = errors.New("config: file not found")

	// ErrUnsupportedFormat indicates the file extension is not a recognised format.
	ErrUnsupportedFormat = errors.New("config: unsupported file format")

	// ErrInvalidConfig indicates the file could not be parsed as a YAML mapping.
	ErrInvalidConfig = errors.New("config: invalid configuration document")
)
