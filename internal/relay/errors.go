package relay

import "errors"

var (
	ErrInvalidFilename   = errors.New("invalid filename")
	ErrInvalidDimensions = errors.New("invalid dimensions")
)

// IsBadRequest reports whether err was caused by client input.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrInvalidFilename) || errors.Is(err, ErrInvalidDimensions)
}
