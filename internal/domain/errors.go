// Package domain holds the core value types shared by every layer: markets,
// order books, opportunities, and the sentinel errors the platform clients
// map HTTP failures onto.
package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrRateLimited   = errors.New("rate limited")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidOrder  = errors.New("invalid order parameters")
	ErrSigningFailed = errors.New("signing failed")
	ErrNoCredential  = errors.New("no signing credential configured")
	ErrNoLiquidity   = errors.New("insufficient order book depth")
)
