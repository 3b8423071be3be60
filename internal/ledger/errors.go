package ledger

import "errors"

// ErrSchema indicates a required column is absent from the raw table.
var ErrSchema = errors.New("required column missing")

// ErrDateParse indicates a date cell failed both accepted layouts under the
// strict coercion policy.
var ErrDateParse = errors.New("unparseable date")

// ErrCoercion indicates a quantity cell could not be coerced to a number
// under the strict coercion policy.
var ErrCoercion = errors.New("non-numeric quantity")
