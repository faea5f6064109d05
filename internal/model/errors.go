package model

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")

	// ErrUnreachable is returned when the destination has no existing parent directory.
	ErrUnreachable = errors.New("destination not reachable")
	// ErrConflict is returned when the destination already has content.
	ErrConflict = errors.New("destination occupied")

	// ErrIO is returned on any read, write or permission failure while installing.
	ErrIO = errors.New("io failure")
	// ErrCorrupt is returned when the archive structure can't be parsed.
	ErrCorrupt = errors.New("corrupt archive")
	// ErrDestinationConflict is returned when the destination stopped being empty
	// between validation and extraction.
	ErrDestinationConflict = errors.New("destination changed before extraction")

	// ErrPersistFailed is returned when the binary directory registration could not be persisted.
	ErrPersistFailed = errors.New("path registration not persisted")

	// ErrBusy is returned when an install is requested while another one is running.
	ErrBusy = errors.New("install already in progress")
)
