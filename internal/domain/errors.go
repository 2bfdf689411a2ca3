package domain

import "errors"

// Domain errors - callers match them with errors.Is
var (
	ErrInvalidTrackQuery = errors.New("trackName and artistName are required")
	ErrTrackNotFound     = errors.New("track not found")
	ErrArtistNotFound    = errors.New("artist not found")
	ErrLinksNotFound     = errors.New("platform links not found")
	ErrInvalidClickEvent = errors.New("missing required fields: trackId, platform, trackName")
	ErrMissingAPIKey     = errors.New("API key not configured")
	ErrUpstreamStatus    = errors.New("upstream returned non-success status")
)
