// Package config provides property-based tests for configuration fallback functionality.
// These tests verify universal properties that should hold across all valid inputs.
package config

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_InvalidWindowFallsBackToDefault tests that non-positive windows fall back to defaults
//
// Property: For any non-positive window size or error sample size, the scan driver
// SHALL use the default value so it always covers a non-empty trailing window.
func TestProperty_InvalidWindowFallsBackToDefault(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.MaxSize = 50

	properties := gopter.NewProperties(parameters)
	defaults := DefaultProductivityConfig()

	properties.Property("non-positive window days fall back to default", prop.ForAll(
		func(days int) bool {
			cfg := &Config{Productivity: ProductivityConfig{WindowDays: days}}
			validateAndApplyDefaults(cfg)
			return cfg.Productivity.WindowDays == defaults.WindowDays
		},
		gen.IntRange(-1000, 0),
	))

	properties.Property("positive window days are kept", prop.ForAll(
		func(days int) bool {
			cfg := &Config{Productivity: ProductivityConfig{WindowDays: days}}
			validateAndApplyDefaults(cfg)
			return cfg.Productivity.WindowDays == days
		},
		gen.IntRange(1, 365),
	))

	properties.Property("non-positive error sample size falls back to default", prop.ForAll(
		func(size int) bool {
			cfg := &Config{Productivity: ProductivityConfig{ErrorSampleSize: size}}
			validateAndApplyDefaults(cfg)
			return cfg.Productivity.ErrorSampleSize == defaults.ErrorSampleSize
		},
		gen.IntRange(-1000, 0),
	))

	properties.TestingRun(t)
}

// TestProperty_UnknownPoliciesFallBackToDefault tests that unrecognised policy
// strings never leak through to the aggregator.
func TestProperty_UnknownPoliciesFallBackToDefault(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("quality versioning is always strict or forward_only", prop.ForAll(
		func(policy string) bool {
			cfg := &Config{Productivity: ProductivityConfig{QualityVersioning: policy}}
			validateAndApplyDefaults(cfg)
			v := cfg.Productivity.QualityVersioning
			if policy == QualityVersioningForwardOnly {
				return v == QualityVersioningForwardOnly
			}
			return v == QualityVersioningStrict
		},
		gen.OneGenOf(gen.AlphaString(), gen.Const(QualityVersioningStrict), gen.Const(QualityVersioningForwardOnly)),
	))

	properties.Property("summary policy is always max or overwrite", prop.ForAll(
		func(policy string) bool {
			cfg := &Config{Productivity: ProductivityConfig{SummaryPolicy: policy}}
			validateAndApplyDefaults(cfg)
			v := cfg.Productivity.SummaryPolicy
			if policy == SummaryPolicyOverwrite {
				return v == SummaryPolicyOverwrite
			}
			return v == SummaryPolicyMax
		},
		gen.OneGenOf(gen.AlphaString(), gen.Const(SummaryPolicyOverwrite), gen.Const(SummaryPolicyMax)),
	))

	properties.Property("database driver is always mysql or postgres", prop.ForAll(
		func(driver string) bool {
			cfg := &Config{Database: DatabaseConfig{Driver: driver}}
			validateAndApplyDefaults(cfg)
			d := cfg.Database.Driver
			return d == "mysql" || d == "postgres"
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
