package domain

import "errors"

var (
	// Common domain errors
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrNotFound            = errors.New("entity not found")
	ErrOperationFailed     = errors.New("operation failed")
	ErrPSPNotConfigured    = errors.New("payment provider not configured")
	ErrPaymentUnavailable  = errors.New("payment provider unavailable")
	ErrPaymentNotCompleted = errors.New("payment not completed")
	ErrBadTicket           = errors.New("invalid confirmation ticket")
	ErrUnauthorized        = errors.New("unauthorized")
)
