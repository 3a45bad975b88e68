package shared

import "errors"

var (
	ErrNotImplemented = errors.New("not implemented")

	// Configuration errors
	ErrMissingConfig = errors.New("configuration not found")
	ErrInvalidConfig = errors.New("invalid configuration")

	// API and service errors
	ErrAPIRequest         = errors.New("API request failed")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrPlaylistNotFound   = errors.New("playlist not found")
	ErrContentNotFound    = errors.New("content not found")
	ErrMalformedResponse  = errors.New("malformed API response")

	// Planning errors
	ErrNoPlaylistSelected = errors.New("please select a playlist")
	ErrInvalidSchedule    = errors.New("invalid schedule")

	// Storage errors
	ErrRecordNotFound = errors.New("record not found")

	// Input validation errors
	ErrMissingArgument = errors.New("missing required argument")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidFlag     = errors.New("invalid flag value")
)
