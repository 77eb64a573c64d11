// Package app defines the contracts between command options and the
// application bootstrapper.
package app

import (
	"github.com/kart-io/loan-advisor/pkg/app/cliflag"
)

// CliOptions is the interface for CLI options.
// Any options struct implementing this interface can be used with App.
type CliOptions interface {
	// Flags returns flags grouped by section.
	Flags() cliflag.NamedFlagSets
	// Complete completes the options with defaults.
	Complete() error
	// Validate validates the options.
	Validate() error
}

// PrintableOptions is an optional interface for options that can print themselves.
type PrintableOptions interface {
	String() string
}
