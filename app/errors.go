package app

import (
	"errors"

	"github.com/vaultmeter/vaultmeter/ports"
)

var (
	// ErrNotFound is returned for unknown or foreign accounts and events.
	ErrNotFound = ports.ErrNotFound

	// ErrAccountInactive is returned when logging against an inactive account.
	ErrAccountInactive = errors.New("account is inactive")

	// ErrInvalidInput wraps malformed request parameters.
	ErrInvalidInput = errors.New("invalid input")
)
