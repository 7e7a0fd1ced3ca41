/*
 * SPDX-FileCopyrightText: © Metastore, Inc. and Contributors
 * SPDX-License-Identifier: Apache-2.0
 */

// Package upgrade implements the engine that executes named maintenance
// procedures (Upgrades) against the metastore platform. An Upgrade is an
// ordered bundle of steps plus cleanup steps; the engine runs the steps
// sequentially with per-step skip and retry semantics, and always runs the
// cleanup steps, whatever the outcome of the main sequence.
package upgrade

// Upgrade is a named maintenance procedure to be performed on the platform.
type Upgrade interface {
	// ID is the stable string identifier for the upgrade.
	ID() string

	// Steps returns the steps to perform, in execution order.
	Steps() []Step

	// CleanupSteps returns the steps to perform after the main steps have
	// finished, on success, failure, or abort.
	CleanupSteps() []Step
}

// Validator is implemented by upgrades that require certain launch arguments.
// CheckArgs runs before any step executes; a non-nil error is a configuration
// error that fails the run with zero step results.
type Validator interface {
	CheckArgs(ctx *Context) error
}

// Step is a single retryable, skippable unit of work within an Upgrade.
//
// Steps are constructed once at upgrade-build time and hold no mutable state
// beyond their injected collaborators. Execute must convert any fault from a
// collaborator into a FAILED result rather than panicking; the engine treats
// a panic as a defect of the step, not of the run.
type Step interface {
	// ID is the stable identifier used in logs and result matching. It must
	// not change across retries of the same logical step.
	ID() string

	// Skip is evaluated once immediately before each (re-)execution. If it
	// returns true the step is not executed and a SKIPPED result is recorded.
	// Skip may append an explanation to the context report but must have no
	// other side effects.
	Skip(ctx *Context) bool

	// RetryCount is the number of additional attempts after a failed initial
	// attempt. Zero means try once. Execute must therefore be safe to invoke
	// more than once when RetryCount is positive.
	RetryCount() int

	// FatalOnFailure reports whether a terminal FAILED result halts the
	// remaining main steps. Steps whose work is advisory return false.
	FatalOnFailure() bool

	// Execute performs the unit of work.
	Execute(ctx *Context) *StepResult
}

// BaseStep carries the defaults shared by most steps: never skipped, no
// retries, fatal on failure. Embed it and override what differs.
type BaseStep struct{}

func (BaseStep) Skip(*Context) bool   { return false }
func (BaseStep) RetryCount() int      { return 0 }
func (BaseStep) FatalOnFailure() bool { return true }
