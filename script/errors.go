package script

import "errors"

// ErrInvalidScript indicates the script hex could not be decoded.
var ErrInvalidScript = errors.New("script: invalid script")
