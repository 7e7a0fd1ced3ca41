/*
 * SPDX-FileCopyrightText: © Metastore, Inc. and Contributors
 * SPDX-License-Identifier: Apache-2.0
 */

package upgrade

import (
	"fmt"

	"github.com/golang/glog"
)

// Report is the ordered, append-only audit trail of one upgrade run. Steps
// execute strictly sequentially, so a single writer holds it at any time and
// no locking is needed. No entry is ever removed or rewritten.
type Report struct {
	lines []string
}

// AddLine appends a line to the report and mirrors it to the process log.
func (r *Report) AddLine(line string) {
	r.lines = append(r.lines, line)
	glog.Info(line)
}

// Addf is AddLine with formatting.
func (r *Report) Addf(format string, args ...interface{}) {
	r.AddLine(fmt.Sprintf(format, args...))
}

// Lines returns a copy of the report lines in append order.
func (r *Report) Lines() []string {
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// Context is the run-scoped state handed to every step: the upgrade being
// executed, the launch arguments, and the shared report. The upgrade
// reference and arguments are read-only after construction.
type Context struct {
	upgrade Upgrade
	args    map[string]string
	report  *Report
}

// NewContext builds a context for one run of the given upgrade. The argument
// map is copied, so later mutation by the caller does not leak into the run.
func NewContext(u Upgrade, args map[string]string) *Context {
	copied := make(map[string]string, len(args))
	for k, v := range args {
		copied[k] = v
	}
	return &Context{upgrade: u, args: copied, report: &Report{}}
}

// Upgrade returns the upgrade this run executes.
func (c *Context) Upgrade() Upgrade { return c.upgrade }

// Arg returns the value of a launch argument and whether it was supplied.
// An argument supplied with an empty value is distinct from an absent one.
func (c *Context) Arg(name string) (string, bool) {
	v, ok := c.args[name]
	return v, ok
}

// HasArg reports whether a launch argument was supplied at all.
func (c *Context) HasArg(name string) bool {
	_, ok := c.args[name]
	return ok
}

// Report returns the run's audit trail.
func (c *Context) Report() *Report { return c.report }
