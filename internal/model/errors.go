package model

import "errors"

var (
	// ErrNotFound is returned when a system, group, or task reference does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a system, group, or task name collides with one already registered.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a registry assignment or CLI filter is malformed.
	ErrNotValid = errors.New("not valid")
	// ErrCyclic is returned when group membership expansion detects a cycle.
	ErrCyclic = errors.New("cyclic reference")
)
