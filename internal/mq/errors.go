package mq

import "errors"

// Hard failures. Everything else is absorbed by the backends and reported
// as false, empty or zero.
var (
	// ErrInvalidArgument reports caller misuse such as a blank queue name
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnavailableDependency reports a backend whose native client was
	// never configured
	ErrUnavailableDependency = errors.New("unavailable dependency")
)
