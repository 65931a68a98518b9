package sentinel

import "errors"

// Infrastructure facts returned (optionally wrapped) by stores and remote
// clients. Services translate them into domain errors before they reach a
// transport.
//
//   - ErrNotFound: no record for the key
//   - ErrInvalidState: stored data cannot be decoded into a valid record
//   - ErrUnavailable: backend or remote service is down or short-circuited
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
