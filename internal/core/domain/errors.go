package domain

import "errors"

var (
	// ErrScanSuperseded is passed to the finalize callback of a pending
	// hardware scan when a new scan for the same account type starts.
	ErrScanSuperseded = errors.New("hardware scan superseded by a new scan")
	// ErrTrackedAccountInvalidAddress ...
	ErrTrackedAccountInvalidAddress = errors.New("tracked account address must not be empty")
	// ErrTrackedAccountInvalidType ...
	ErrTrackedAccountInvalidType = errors.New("tracked account type is not valid")
)
