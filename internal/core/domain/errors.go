package domain

import "errors"

var (
	ErrInvalidQuantity    = errors.New("quantity must be a positive integer")
	ErrProductNotFound    = errors.New("product not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrStorageUnavailable = errors.New("storage engine unavailable")
)
