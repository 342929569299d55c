package service

import "errors"

var (
	ErrRetryLimitExceeded = errors.New("retry limit exceeded")
	ErrUnknownMessageType = errors.New("unknown message type")
)
