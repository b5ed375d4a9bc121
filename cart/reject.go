// Copyright (c) 2025 BVK Chaitanya

package cart

import (
	"errors"
	"fmt"
)

// Rejection is a typed construction or validation failure carrying the
// human-readable reason shown to the counterparty. Collaborator errors are
// never propagated raw; they are mapped to a Rejection with a generic
// retry-suggesting message and logged separately.
type Rejection struct {
	Reason string
}

func (r *Rejection) Error() string {
	return r.Reason
}

func rejectf(format string, args ...any) error {
	return &Rejection{Reason: fmt.Sprintf(format, args...)}
}

// AsRejection returns the Rejection wrapped in err, if any.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
