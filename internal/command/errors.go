package command

import "errors"

// Command errors.
var (
	// ErrCommandNotFound indicates no command is registered under a name.
	ErrCommandNotFound = errors.New("command: not found")

	// ErrCommandExists indicates a name is already taken in a registry.
	ErrCommandExists = errors.New("command: already registered")

	// ErrInvalidArgument indicates an argument of the wrong type.
	ErrInvalidArgument = errors.New("command: invalid argument")

	// ErrCancelled indicates a pre-execute hook cancelled the command.
	ErrCancelled = errors.New("command: cancelled by hook")
)
