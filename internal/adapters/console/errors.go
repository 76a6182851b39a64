package console

import "errors"

// ErrUsage marks a malformed command line.
var ErrUsage = errors.New("usage")
