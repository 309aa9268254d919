package domain

import "errors"

// ErrNotAccepted is returned when billing answered without error but
// reported success=false.
var ErrNotAccepted = errors.New("billing_not_accepted")
