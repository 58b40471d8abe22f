package domain

import "errors"

// Terminal conditions of the poll loop. None of them is retried.
var (
	ErrPlayerUnreachable  = errors.New("player unreachable")
	ErrServiceUnreachable = errors.New("presence service unreachable")
	ErrServiceLinkLost    = errors.New("connection to presence service lost")
	ErrPlayerLinkLost     = errors.New("connection to player lost")
)
