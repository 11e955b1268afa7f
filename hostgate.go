// Package hostgate re-exports the registry API of pkg/hostgate.
package hostgate

import (
	"github.com/yourusername/hostgate/pkg/hostgate"
)

// Re-export main types for convenience
type (
	Registry   = hostgate.Registry
	Option     = hostgate.Option
	Policy     = hostgate.Policy
	Decision   = hostgate.Decision
	Status     = hostgate.Status
	BucketInfo = hostgate.BucketInfo
	Recorder   = hostgate.Recorder
	Config     = hostgate.Config
)

// Constructors and options
var (
	New            = hostgate.New
	WithDefaults   = hostgate.WithDefaults
	WithConfigFile = hostgate.WithConfigFile
	WithRecorder   = hostgate.WithRecorder
	HostFromURL    = hostgate.HostFromURL

	PolicyFromMillis = hostgate.PolicyFromMillis
)

// Errors
var (
	ErrInvalidConfig = hostgate.ErrInvalidConfig
	ErrInvalidPeriod = hostgate.ErrInvalidPeriod
	ErrInvalidKey    = hostgate.ErrInvalidKey
	ErrInvalidURL    = hostgate.ErrInvalidURL
)
