package environment

import "errors"

// ErrInvalidTimezone is returned by Init when the configured timezone is not
// a known IANA zone name.
var ErrInvalidTimezone = errors.New("environment: invalid timezone")
