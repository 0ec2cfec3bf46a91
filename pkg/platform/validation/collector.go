// Package validation collects field-level violations so an entity can report
// every problem in one pass instead of failing on the first.
//
//	c := validation.NewCollector()
//	c.When(name == "", MsgNameRequired)
//	c.When(len(name) > 100, MsgNameTooLong, 100)
//	return c.Err()
package validation

import (
	"fmt"

	dErrors "clinic/pkg/domain-errors"
)

// Message is a symbolic message key with its default (English) template.
// Templates use fmt verbs; arguments are supplied at the call site.
type Message struct {
	Key     string
	Default string
}

// Render formats the default template with args.
func (m Message) Render(args ...any) string {
	if len(args) == 0 {
		return m.Default
	}
	return fmt.Sprintf(m.Default, args...)
}

// Collector accumulates violations in the order they are found.
// The zero value is ready to use. A Collector is not safe for concurrent use.
type Collector struct {
	violations []dErrors.Violation
}

func NewCollector() *Collector {
	return &Collector{}
}

// When records msg if cond is true.
func (c *Collector) When(cond bool, msg Message, args ...any) *Collector {
	if cond {
		c.Add(msg, args...)
	}
	return c
}

// Add records msg unconditionally.
func (c *Collector) Add(msg Message, args ...any) *Collector {
	c.violations = append(c.violations, dErrors.Violation{
		Key:     msg.Key,
		Message: msg.Render(args...),
		Args:    args,
	})
	return c
}

// Merge appends the violations carried by err. Errors without violations
// are ignored; they are not field-level failures.
func (c *Collector) Merge(err error) *Collector {
	c.violations = append(c.violations, dErrors.Violations(err)...)
	return c
}

// HasViolations reports whether anything was collected.
func (c *Collector) HasViolations() bool {
	return len(c.violations) > 0
}

// Violations returns a copy of what was collected so far.
func (c *Collector) Violations() []dErrors.Violation {
	return append([]dErrors.Violation(nil), c.violations...)
}

// Err returns nil when nothing was collected, otherwise one aggregate
// CodeValidation error carrying every violation in order.
func (c *Collector) Err() error {
	if len(c.violations) == 0 {
		return nil
	}
	return dErrors.Validation(c.Violations()...)
}
