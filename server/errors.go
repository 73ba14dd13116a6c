package server

import "errors"

// Server errors. The socket, bind, and invalid-IP cases are fatal at
// init time; send and receive failures during the run loop are logged
// and the loop continues.
var (
	ErrSocket     = errors.New("server: socket creation failed")
	ErrBind       = errors.New("server: bind failed")
	ErrRecvFail   = errors.New("server: recvfrom failed")
	ErrSendFail   = errors.New("server: sendto failed")
	ErrNotRunning = errors.New("server: not running")
	ErrInvalidIP  = errors.New("server: invalid IP address")
)

// Upstream errors. Neither produces a reply to the client; fabricating
// a SERVFAIL could poison client caches, so the client just times out.
var (
	ErrUpstreamTimeout     = errors.New("server: upstream timeout")
	ErrUpstreamUnreachable = errors.New("server: upstream unreachable")
)

// Cache errors, reserved for a response cache this forwarder does not
// implement.
var (
	ErrCacheMiss    = errors.New("server: cache miss")
	ErrCacheExpired = errors.New("server: cache entry expired")
	ErrCacheFull    = errors.New("server: cache full")
)
