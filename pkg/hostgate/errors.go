package hostgate

import (
	"errors"

	"github.com/yourusername/hostgate/core"
)

var (
	// ErrInvalidConfig is returned when a bucket configuration is invalid
	ErrInvalidConfig = core.ErrInvalidConfig

	// ErrNegativeCapacity is returned when bucket capacity is negative
	ErrNegativeCapacity = core.ErrNegativeCapacity

	// ErrInvalidPeriod is returned when the refill period is zero or negative
	ErrInvalidPeriod = core.ErrInvalidPeriod

	// ErrInvalidKey is returned when the bucket key is empty
	ErrInvalidKey = errors.New("bucket key cannot be empty")

	// ErrInvalidURL is returned when no hostname can be extracted from a URL
	ErrInvalidURL = errors.New("error parsing url")
)
