package meetsim

import "errors"

var (
	// ErrUnexpectedStatus is returned when the service answers with a status
	// the simulation did not expect.
	ErrUnexpectedStatus = errors.New("unexpected response status")

	// ErrVerification is returned when the standings read back from the
	// service are inconsistent with the submitted results.
	ErrVerification = errors.New("verification failed")
)
