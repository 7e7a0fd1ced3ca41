/*
 * SPDX-FileCopyrightText: © Metastore, Inc. and Contributors
 * SPDX-License-Identifier: Apache-2.0
 */

package upgrade

// Result is the terminal outcome of a single step attempt.
type Result uint8

const (
	// Succeeded means the step ran and completed its work.
	Succeeded Result = iota
	// Failed means the step ran and could not complete its work.
	Failed
	// Skipped means the step's skip predicate held and it did not run.
	Skipped
	// Aborted means the step decided the whole run must stop.
	Aborted
)

func (r Result) String() string {
	switch r {
	case Succeeded:
		return "SUCCEEDED"
	case Failed:
		return "FAILED"
	case Skipped:
		return "SKIPPED"
	case Aborted:
		return "ABORTED"
	}
	return "UNKNOWN"
}

// Action tells the engine what to do after a step's terminal result has been
// recorded.
type Action uint8

const (
	// Continue proceeds to the next step. This is the default.
	Continue Action = iota
	// Abort halts the remaining main steps. Cleanup steps still run.
	Abort
)

func (a Action) String() string {
	if a == Abort {
		return "ABORT"
	}
	return "CONTINUE"
}

// StepResult is the immutable outcome record of one step attempt.
type StepResult struct {
	StepID string
	Result Result
	Action Action
}

// StepSucceeded returns a SUCCEEDED result for the given step.
func StepSucceeded(stepID string) *StepResult {
	return &StepResult{StepID: stepID, Result: Succeeded}
}

// StepFailed returns a FAILED result for the given step.
func StepFailed(stepID string) *StepResult {
	return &StepResult{StepID: stepID, Result: Failed}
}

// StepSkipped returns a SKIPPED result for the given step.
func StepSkipped(stepID string) *StepResult {
	return &StepResult{StepID: stepID, Result: Skipped}
}

// StepAborted returns an ABORTED result carrying the Abort action.
func StepAborted(stepID string) *StepResult {
	return &StepResult{StepID: stepID, Result: Aborted, Action: Abort}
}
