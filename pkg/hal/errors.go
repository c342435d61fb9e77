package hal

import "errors"

var (
	// ErrInvalidArgument is returned for out of range channels and values.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotSupported is returned when an attribute is not exposed by the device.
	ErrNotSupported = errors.New("not supported")
	// ErrNoSuchDevice is returned by Attach when mandatory configuration is missing.
	ErrNoSuchDevice = errors.New("no such device")
	// ErrResourceUnavailable is returned by Attach when the register window cannot be mapped.
	ErrResourceUnavailable = errors.New("resource unavailable")
)
