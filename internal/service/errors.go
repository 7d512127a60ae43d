package service

import (
	"errors"

	"github.com/raffle-hub/raffle-api/internal/repository"
)

var (
	ErrValidation       = errors.New("invalid input")
	ErrTicketNotFound   = repository.ErrTicketNotFound
	ErrPrizeNotFound    = repository.ErrPrizeNotFound
	ErrQuotaNotFound    = errors.New("quota not found")
	ErrQuotaUnavailable = errors.New("quota is not available")
	ErrTicketClosed     = errors.New("ticket is closed")
	ErrPurchaseLimit    = errors.New("purchase limit reached for this ticket")
	ErrGateway          = errors.New("payment gateway failure")

	ErrUserNotFound     = repository.ErrUserNotFound
	ErrUserEmailExists  = repository.ErrUserEmailExists
	ErrWrongPassword    = errors.New("wrong password")
	ErrPermissionDenied = errors.New("permission denied")
)
