package diag

import (
	"fmt"
	"strings"
)

// Collector accumulates diagnostics across a single compilation run and
// renders them together at the end, rather than each pipeline stage
// printing independently.
type Collector struct {
	errors     []Diagnostic
	warnings   []Diagnostic
	maxErrors  int
	sourceCode string
}

// NewCollector creates a collector whose ShouldStop reports true once
// maxErrors errors have been added (warnings are never counted); Add
// keeps every diagnostic regardless. maxErrors <= 0 defaults to 20.
func NewCollector(maxErrors int) *Collector {
	if maxErrors <= 0 {
		maxErrors = 20
	}
	return &Collector{maxErrors: maxErrors}
}

// SetSourceCode stores source for auto-populating a diagnostic's source
// line when the caller didn't supply one.
func (c *Collector) SetSourceCode(source string) { c.sourceCode = source }

func (c *Collector) Add(d Diagnostic) {
	if d.Context.SourceLine == "" && c.sourceCode != "" {
		d.Context.SourceLine = c.sourceLine(d.Location.Line)
	}
	if d.Level == LevelWarning {
		c.warnings = append(c.warnings, d)
		return
	}
	c.errors = append(c.errors, d)
}

func (c *Collector) sourceLine(n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(c.sourceCode, "\n")
	if n > len(lines) {
		return ""
	}
	return lines[n-1]
}

func (c *Collector) HasErrors() bool { return len(c.errors) > 0 }

func (c *Collector) HasFatal() bool {
	for _, e := range c.errors {
		if e.Level == LevelFatal {
			return true
		}
	}
	return false
}

func (c *Collector) ErrorCount() int   { return len(c.errors) }
func (c *Collector) WarningCount() int { return len(c.warnings) }

// ShouldStop reports whether the error cap has been reached.
func (c *Collector) ShouldStop() bool { return len(c.errors) >= c.maxErrors }

// Report formats every collected diagnostic plus a trailing summary
// line.
func (c *Collector) Report(useColor bool) string {
	var sb strings.Builder
	for i, e := range c.errors {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(e.Format(useColor))
	}
	for i, w := range c.warnings {
		if i > 0 || len(c.errors) > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(w.Format(useColor))
	}
	if len(c.errors) > 0 || len(c.warnings) > 0 {
		sb.WriteString("\n")
		if len(c.errors) > 0 {
			sb.WriteString(fmt.Sprintf("%d error(s)", len(c.errors)))
		}
		if len(c.warnings) > 0 {
			if len(c.errors) > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%d warning(s)", len(c.warnings)))
		}
		sb.WriteString(" found\n")
	}
	return sb.String()
}

// Constructors for the diagnostic shapes the pipeline emits most often.

func MemoryError(message string, loc Location) Diagnostic {
	return Diagnostic{Level: LevelError, Category: CategoryMemory, Message: message, Location: loc}
}

func VerificationFailure(message string, loc Location) Diagnostic {
	return Diagnostic{
		Level: LevelError, Category: CategoryVerification, Message: message, Location: loc,
		Context: Context{HelpText: "a strict-mode verification condition was refuted"},
	}
}

func InternalError(message string, loc Location) Diagnostic {
	return Diagnostic{
		Level: LevelFatal, Category: CategoryInternal, Message: message, Location: loc,
		Context: Context{HelpText: "this is an internal compiler error"},
	}
}
