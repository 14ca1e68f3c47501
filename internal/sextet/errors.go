package sextet

import "errors"

// ErrRead is returned when the underlying source fails with anything other
// than end of stream. It is never retried.
var ErrRead = errors.New("sextet: read failed")
