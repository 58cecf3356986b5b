// Package policy decides whether a classified node type change may be
// registered.
package policy

import (
	"fmt"

	"ntdiff/internal/config"
	"ntdiff/internal/typediff"
)

// Policy caps the severity of changes accepted for registration.
type Policy struct {
	MaxSeverity typediff.Severity
}

// Default accepts unchanged and trivially changed node types only. A
// trivial change leaves all stored content valid and all item identifiers
// stable.
func Default() Policy {
	return Policy{MaxSeverity: typediff.SeverityTrivial}
}

// FromConfig reads the policy from configuration.
func FromConfig(cfg config.PolicyConfig) (Policy, error) {
	sev, err := typediff.ParseSeverity(cfg.MaxSeverity)
	if err != nil {
		return Policy{}, err
	}
	return Policy{MaxSeverity: sev}, nil
}

// Decision is the outcome of evaluating a change.
type Decision struct {
	Allowed  bool              `json:"allowed"`
	Severity typediff.Severity `json:"severity"`
	Forced   bool              `json:"forced,omitempty"`
	Reason   string            `json:"reason"`
}

// Evaluate decides on a single node type change. force accepts any change
// but still records what would have been refused.
func (p Policy) Evaluate(d *typediff.DefinitionDiff, force bool) Decision {
	return p.decide(d.Name(), d.Severity(), force)
}

// EvaluateNew decides on registering a node type that has no stored version.
func (p Policy) EvaluateNew(name string, force bool) Decision {
	dec := p.decide(name, typediff.SeverityNone, force)
	dec.Reason = fmt.Sprintf("%s is a new node type", name)
	return dec
}

// EvaluateRemoval decides on unregistering a node type. Content of a removed
// type no longer validates, so removal is always MAJOR.
func (p Policy) EvaluateRemoval(name string, force bool) Decision {
	return p.decide(name, typediff.SeverityMajor, force)
}

func (p Policy) decide(name string, sev typediff.Severity, force bool) Decision {
	dec := Decision{Severity: sev}
	switch {
	case sev <= p.MaxSeverity:
		dec.Allowed = true
		if sev == typediff.SeverityNone {
			dec.Reason = fmt.Sprintf("%s is unchanged", name)
		} else {
			dec.Reason = fmt.Sprintf("%s change is %s, within policy maximum %s", name, sev, p.MaxSeverity)
		}
	case force:
		dec.Allowed = true
		dec.Forced = true
		dec.Reason = fmt.Sprintf("%s change is %s, above policy maximum %s; forced", name, sev, p.MaxSeverity)
	default:
		dec.Reason = fmt.Sprintf("%s change is %s, above policy maximum %s", name, sev, p.MaxSeverity)
	}
	return dec
}
