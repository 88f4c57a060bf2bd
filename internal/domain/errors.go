package domain

import "errors"

// Domain errors
var (
	ErrAlreadyConnected   = errors.New("channel already connected")
	ErrConnectAborted     = errors.New("connect aborted by disconnect")
	ErrInvalidIdentity    = errors.New("room code and nickname are required")
	ErrEmptyDomain        = errors.New("domain cannot be empty")
	ErrMalformedFrame     = errors.New("malformed frame")
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrRoomProvisioning   = errors.New("room provisioning failed")
)
