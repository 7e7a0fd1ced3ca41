/*
 * SPDX-FileCopyrightText: © Metastore, Inc. and Contributors
 * SPDX-License-Identifier: Apache-2.0
 */

package upgrade

import (
	"sort"

	"github.com/google/uuid"
)

// RunState is the aggregate outcome of one engine invocation.
type RunState uint8

const (
	// RunSucceeded means every non-skipped main step succeeded.
	RunSucceeded RunState = iota
	// RunFailed means a configuration error, a fatal step failure, or an
	// abort ended the run before all main steps succeeded.
	RunFailed
)

func (s RunState) String() string {
	if s == RunSucceeded {
		return "SUCCEEDED"
	}
	return "FAILED"
}

// RunResult aggregates everything one engine invocation produced: the
// terminal result of every step that reached one, in execution order, and
// the full report. Steps after a halt carry no result at all.
type RunResult struct {
	RunID          string
	UpgradeID      string
	State          RunState
	StepResults    []*StepResult
	CleanupResults []*StepResult
	Report         *Report
}

// Engine executes upgrades. Execution is single-threaded and synchronous:
// step N+1 never starts before step N's terminal result, including all of
// its retries, has been recorded. Callers wanting asynchrony run the engine
// in their own goroutine.
type Engine struct{}

// NewEngine returns an engine ready to execute upgrades.
func NewEngine() *Engine {
	return &Engine{}
}

// Execute runs the given upgrade with the supplied launch arguments and
// returns the aggregated result. A report is always produced, even on total
// failure, so operators keep an audit trail of exactly what ran.
func (e *Engine) Execute(u Upgrade, args map[string]string) *RunResult {
	ctx := NewContext(u, args)
	rep := ctx.Report()
	res := &RunResult{
		RunID:     uuid.New().String(),
		UpgradeID: u.ID(),
		Report:    rep,
	}

	rep.Addf("Starting upgrade with id %s. Run id: %s.", u.ID(), res.RunID)
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rep.Addf("Argument %s = %q.", name, args[name])
	}

	// Configuration errors fail the run before any step executes.
	if v, ok := u.(Validator); ok {
		if err := v.CheckArgs(ctx); err != nil {
			rep.Addf("Configuration error: %v. No steps were executed.", err)
			res.State = RunFailed
			rep.Addf("Upgrade %s finished with state %s.", u.ID(), res.State)
			return res
		}
	}

	halted := false
	steps := u.Steps()
	for i, step := range steps {
		result := e.executeStep(ctx, step, i+1, len(steps))
		res.StepResults = append(res.StepResults, result)

		if result.Action == Abort {
			rep.Addf("Step %s requested abort. Halting remaining steps.", step.ID())
			halted = true
			break
		}
		if result.Result == Failed {
			if step.FatalOnFailure() {
				rep.Addf("Step %s failed. Halting remaining steps.", step.ID())
				halted = true
				break
			}
			rep.Addf("Step %s failed, but is not required to succeed. Continuing.", step.ID())
		}
	}

	// Cleanup steps run exactly once per invocation, whatever happened above.
	cleanup := u.CleanupSteps()
	for i, step := range cleanup {
		result := e.executeStep(ctx, step, i+1, len(cleanup))
		res.CleanupResults = append(res.CleanupResults, result)
		if result.Result == Failed {
			rep.Addf("Cleanup step %s failed.", step.ID())
		}
	}

	res.State = RunSucceeded
	if halted {
		res.State = RunFailed
	} else {
		for _, r := range res.StepResults {
			if r.Result != Succeeded && r.Result != Skipped {
				res.State = RunFailed
				break
			}
		}
	}
	rep.Addf("Upgrade %s finished with state %s.", u.ID(), res.State)
	return res
}

// executeStep takes one step to its terminal result: skip check first, then
// up to RetryCount+1 attempts, stopping at the first non-failed outcome.
func (e *Engine) executeStep(ctx *Context, step Step, n, total int) *StepResult {
	rep := ctx.Report()
	if step.Skip(ctx) {
		rep.Addf("Skipping Step %d/%d: %s.", n, total, step.ID())
		return StepSkipped(step.ID())
	}

	attempts := step.RetryCount() + 1
	var result *StepResult
	for attempt := 1; attempt <= attempts; attempt++ {
		rep.Addf("Executing Step %d/%d: %s (attempt %d/%d)...", n, total, step.ID(), attempt, attempts)
		result = e.runSafely(ctx, step)
		if result.Result != Failed {
			break
		}
		if attempt < attempts {
			rep.Addf("Step %s failed. Retrying.", step.ID())
		}
	}
	rep.Addf("Completed Step %d/%d: %s. Result: %s.", n, total, step.ID(), result.Result)
	return result
}

// runSafely invokes the step and converts a panic or a missing result into a
// FAILED result, so a misbehaving step cannot destabilize the engine.
func (e *Engine) runSafely(ctx *Context, step Step) (result *StepResult) {
	defer func() {
		if rec := recover(); rec != nil {
			ctx.Report().Addf("Step %s panicked: %v.", step.ID(), rec)
			result = StepFailed(step.ID())
		}
	}()
	result = step.Execute(ctx)
	if result == nil {
		ctx.Report().Addf("Step %s produced no result. Treating as failed.", step.ID())
		result = StepFailed(step.ID())
	}
	return result
}
