package typediff

import (
	"fmt"
	"strings"
)

// Severity ranks the impact of a node type change. The scale is totally
// ordered: SeverityNone < SeverityTrivial < SeverityMinor < SeverityMajor.
type Severity int

const (
	// SeverityNone means the definitions are identical.
	SeverityNone Severity = iota
	// SeverityTrivial changes neither affect stored content nor assigned
	// item definition ids.
	SeverityTrivial
	// SeverityMinor changes keep stored content consistent but change
	// assigned item definition ids.
	SeverityMinor
	// SeverityMajor changes may leave stored content inconsistent and change
	// assigned item definition ids.
	SeverityMajor
)

var severityNames = [...]string{"NONE", "TRIVIAL", "MINOR", "MAJOR"}

func (s Severity) String() string {
	if s >= SeverityNone && s <= SeverityMajor {
		return severityNames[s]
	}
	return "unknown"
}

// AtLeast raises s to floor if s is lower.
func (s Severity) AtLeast(floor Severity) Severity {
	return max(s, floor)
}

// ParseSeverity parses a severity name case-insensitively.
func ParseSeverity(v string) (Severity, error) {
	for i, name := range severityNames {
		if strings.EqualFold(strings.TrimSpace(v), name) {
			return Severity(i), nil
		}
	}
	return SeverityNone, fmt.Errorf("unknown severity %q (want none, trivial, minor or major)", v)
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Operation is what happened to a child item between two versions.
type Operation int

const (
	OperationUnchanged Operation = iota
	OperationAdded
	OperationRemoved
	OperationModified
)

func (o Operation) String() string {
	switch o {
	case OperationAdded:
		return "ADDED"
	case OperationRemoved:
		return "REMOVED"
	case OperationModified:
		return "MODIFIED"
	default:
		return "UNCHANGED"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Operation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Operation) UnmarshalText(text []byte) error {
	for _, op := range []Operation{OperationUnchanged, OperationAdded, OperationRemoved, OperationModified} {
		if strings.EqualFold(string(text), op.String()) {
			*o = op
			return nil
		}
	}
	return fmt.Errorf("unknown operation %q", text)
}
