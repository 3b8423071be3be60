package reporting

import "errors"

// ErrNoArchive is returned by operations that need the report archive when
// the service was assembled without one.
var ErrNoArchive = errors.New("report archive is not configured")
