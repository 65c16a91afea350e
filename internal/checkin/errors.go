package checkin

import "errors"

// Domain errors returned by the check-in service. Each one is a recoverable,
// user-facing condition; handlers map them to HTTP statuses.
var (
	ErrClassNotFound       = errors.New("class not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserInactive        = errors.New("user account is not active")
	ErrForbidden           = errors.New("not allowed to act on this check-in")
	ErrClassAlreadyStarted = errors.New("class has already started")
	ErrAlreadyCheckedIn    = errors.New("an active check-in already exists for this user and class")
	ErrAlreadyCancelled    = errors.New("check-in is already cancelled")
	ErrCapacityExceeded    = errors.New("class capacity has been reached")
	ErrCheckinNotFound     = errors.New("check-in not found")
)
