// Package diag is the compiler's leveled, categorized diagnostic
// reporter: one collector accumulates every error and warning produced
// across lowering, memory validation, and verification-condition
// generation, then renders them with source-line context and,
// optionally, ANSI color.
package diag

import (
	"fmt"
	"strings"
)

// Level indicates the severity of a diagnostic.
type Level int

const (
	LevelWarning Level = iota
	LevelError
	LevelFatal
)

func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal error"
	default:
		return "unknown"
	}
}

// Category classifies where in the pipeline a diagnostic originated.
type Category int

const (
	CategorySyntax Category = iota
	CategorySemantic
	CategoryMemory
	CategoryVerification
	CategoryCodegen
	CategoryInternal
)

func (c Category) String() string {
	switch c {
	case CategorySyntax:
		return "syntax"
	case CategorySemantic:
		return "semantic"
	case CategoryMemory:
		return "memory"
	case CategoryVerification:
		return "verification"
	case CategoryCodegen:
		return "codegen"
	case CategoryInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Location pins a diagnostic to a position in the original source.
type Location struct {
	File   string
	Line   int
	Column int
	Length int
}

func (loc Location) String() string {
	if loc.File == "" {
		return fmt.Sprintf("%d:%d", loc.Line, loc.Column)
	}
	return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Column)
}

// Context carries the optional extras a Diagnostic may attach: the
// source line it points at, a suggested fix, and free-form help text.
type Context struct {
	SourceLine string
	Suggestion string
	HelpText   string
}

// Diagnostic is a single reported problem.
type Diagnostic struct {
	Level    Level
	Category Category
	Message  string
	Location Location
	Context  Context
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s", d.Location, d.Message)
}

// Format renders d with a rustc-style underline and optional help text.
func (d Diagnostic) Format(useColor bool) string {
	var sb strings.Builder

	if useColor {
		sb.WriteString("\033[1;31m")
	}
	sb.WriteString(d.Level.String())
	sb.WriteString(" [")
	sb.WriteString(d.Category.String())
	sb.WriteString("]: ")
	if useColor {
		sb.WriteString("\033[0m")
	}
	sb.WriteString(d.Message)
	sb.WriteString("\n")

	if useColor {
		sb.WriteString("\033[1;34m")
	}
	sb.WriteString("  --> ")
	sb.WriteString(d.Location.String())
	if useColor {
		sb.WriteString("\033[0m")
	}
	sb.WriteString("\n")

	if d.Context.SourceLine != "" {
		lineNum := fmt.Sprintf("%d", d.Location.Line)
		padding := strings.Repeat(" ", len(lineNum)+1)

		sb.WriteString(padding)
		sb.WriteString("|\n")
		sb.WriteString(lineNum)
		sb.WriteString(" | ")
		sb.WriteString(d.Context.SourceLine)
		sb.WriteString("\n")
		sb.WriteString(padding)
		sb.WriteString("| ")

		if d.Location.Column > 0 {
			sb.WriteString(strings.Repeat(" ", d.Location.Column-1))
			if useColor {
				sb.WriteString("\033[1;31m")
			}
			if d.Location.Length > 0 {
				sb.WriteString(strings.Repeat("^", d.Location.Length))
			} else {
				sb.WriteString("^")
			}
			if useColor {
				sb.WriteString("\033[0m")
			}
			sb.WriteString("\n")
		}
	}

	if d.Context.Suggestion != "" {
		if useColor {
			sb.WriteString("\033[1;32m")
		}
		sb.WriteString("   help: ")
		if useColor {
			sb.WriteString("\033[0m")
		}
		sb.WriteString(d.Context.Suggestion)
		sb.WriteString("\n")
	}

	if d.Context.HelpText != "" {
		if useColor {
			sb.WriteString("\033[1;36m")
		}
		sb.WriteString("   note: ")
		if useColor {
			sb.WriteString("\033[0m")
		}
		sb.WriteString(d.Context.HelpText)
		sb.WriteString("\n")
	}

	return sb.String()
}
