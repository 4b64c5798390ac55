package service

import "errors"

var (
	// ErrNotFound covers every terminal miss: offline channel, invalid
	// login, deleted or private video that no fallback could reach.
	ErrNotFound = errors.New("not found")
	// ErrUpstream is a transport failure or non-success status from the
	// platform.
	ErrUpstream = errors.New("upstream request failed")
	// ErrBadPlaylist means a body was fetched but is not a playlist.
	ErrBadPlaylist = errors.New("not a valid playlist")
)
