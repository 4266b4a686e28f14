// internal/websocket/errors.go
package websocket

import "errors"

var (
	ErrHubClosed  = errors.New("websocket hub is closed")
	ErrClientSlow = errors.New("client send buffer is full")
)
