package media

import "errors"

// Error kinds. Every error returned by the render core wraps exactly one of
// them, so callers can branch with errors.Is.
var (
	ErrInvalidAsset  = errors.New("invalid asset")
	ErrInvalidPlan   = errors.New("invalid plan")
	ErrInvalidConfig = errors.New("invalid config")
)
