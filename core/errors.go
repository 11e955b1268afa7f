package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned when a bucket policy is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNegativeCapacity is returned when bucket capacity is negative
	ErrNegativeCapacity = fmt.Errorf("%w: capacity must not be negative", ErrInvalidConfig)

	// ErrInvalidPeriod is returned when the refill period is not positive
	ErrInvalidPeriod = fmt.Errorf("%w: period must be positive", ErrInvalidConfig)
)
