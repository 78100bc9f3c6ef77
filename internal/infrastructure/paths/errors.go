package paths

import "errors"

// ErrCannotCreateFile is returned when a file required at startup (database
// file, error log) does not exist and cannot be created.
var ErrCannotCreateFile = errors.New("paths: unable to create file")
