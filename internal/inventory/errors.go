package inventory

import "errors"

// ErrNotFound indicates no category sheet row matches the requested
// (product, size) pair.
var ErrNotFound = errors.New("stock item not found")

// ErrValidation indicates the adjustment was rejected at the input boundary
// before any write.
var ErrValidation = errors.New("invalid adjustment")

// ErrUnknownCategory indicates the category is not in the configured sheet
// list.
var ErrUnknownCategory = errors.New("unknown category sheet")
