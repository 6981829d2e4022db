// Package config reads the compiler's environment-driven defaults: the
// knobs a CI pipeline or a developer's shell sets once rather than
// passing as flags on every invocation.
package config

import "github.com/xyproto/env/v2"

// Config holds every environment-derived compiler default.
type Config struct {
	// OptLevel is the optimizer level (0-3) used when a caller doesn't
	// pass an explicit -O flag.
	OptLevel uint8
	// VCMode is the verification-condition output mode: "skip", "warn",
	// or "strict".
	VCMode string
	// StrictMemory fails generation on any memory-model error rather
	// than collecting and reporting it.
	StrictMemory bool
	// MaxAccounts is the known account count that literal account
	// indices are checked against; 0 means unknown (no index check).
	MaxAccounts uint8
}

// Load reads SOLISP_OPT_LEVEL, SOLISP_VC_MODE, SOLISP_STRICT_MEMORY, and
// SOLISP_MAX_ACCOUNTS from the environment, falling back to sensible
// compiler defaults when unset.
func Load() Config {
	return Config{
		OptLevel:     uint8(env.IntOr("SOLISP_OPT_LEVEL", 1)),
		VCMode:       env.StrOr("SOLISP_VC_MODE", "warn"),
		StrictMemory: env.Bool("SOLISP_STRICT_MEMORY"),
		MaxAccounts:  uint8(env.IntOr("SOLISP_MAX_ACCOUNTS", 0)),
	}
}
