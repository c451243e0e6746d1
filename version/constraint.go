package version

import (
	"strconv"
	"strings"
)

// Operator is a version constraint operator.
type Operator string

// Recognized constraint operators.
const (
	OpEqual       Operator = "="
	OpNotEqual    Operator = "!="
	OpGreater     Operator = ">"
	OpLess        Operator = "<"
	OpGreaterEq   Operator = ">="
	OpLessEq      Operator = "<="
	OpPessimistic Operator = "~>" // "~> 2.1" admits [2.1, 3.0); "~> 2.1.3" admits [2.1.3, 2.2.0)
)

// UnknownOperatorError reports a constraint operator outside the recognized
// set.
type UnknownOperatorError struct {
	Operator string
}

func (e *UnknownOperatorError) Error() string {
	return "unknown constraint operator " + strconv.Quote(e.Operator)
}

// Constraint pairs an operator with a version. For the pessimistic operator
// the implied upper bound is computed once at construction, not per check.
type Constraint struct {
	Op      Operator
	Version Version

	// pessimisticCeil is the exclusive upper bound for OpPessimistic.
	pessimisticCeil Version
}

// NewConstraint builds a constraint from an operator and a version string.
func NewConstraint(op Operator, text string) (Constraint, error) {
	switch op {
	case OpEqual, OpNotEqual, OpGreater, OpLess, OpGreaterEq, OpLessEq, OpPessimistic:
	default:
		return Constraint{}, &UnknownOperatorError{Operator: string(op)}
	}

	v, err := Parse(text)
	if err != nil {
		return Constraint{}, err
	}

	c := Constraint{Op: op, Version: v}
	if op == OpPessimistic {
		c.pessimisticCeil = v.bump()
	}
	return c, nil
}

// ParseConstraint parses a textual constraint such as "~> 1.4" or ">= 2.0".
// A bare version string is treated as an exact match, mirroring how gem
// requirements default to "=".
func ParseConstraint(s string) (Constraint, error) {
	s = strings.TrimSpace(s)

	i := 0
	for i < len(s) && isOperatorChar(s[i]) {
		i++
	}
	op := s[:i]
	rest := strings.TrimSpace(s[i:])

	if op == "" {
		return NewConstraint(OpEqual, rest)
	}
	return NewConstraint(Operator(op), rest)
}

func isOperatorChar(b byte) bool {
	switch b {
	case '=', '!', '<', '>', '~':
		return true
	}
	return false
}

// String renders the constraint in "op version" form.
func (c Constraint) String() string {
	return string(c.Op) + " " + c.Version.String()
}

// SatisfiedBy reports whether v satisfies the constraint.
func (c Constraint) SatisfiedBy(v Version) bool {
	cmp := v.Compare(c.Version)
	switch c.Op {
	case OpEqual:
		return cmp == 0
	case OpNotEqual:
		return cmp != 0
	case OpGreater:
		return cmp > 0
	case OpLess:
		return cmp < 0
	case OpGreaterEq:
		return cmp >= 0
	case OpLessEq:
		return cmp <= 0
	case OpPessimistic:
		return cmp >= 0 && v.Compare(c.pessimisticCeil) < 0
	}
	return false
}

// bump computes the exclusive ceiling of a pessimistic constraint: the last
// segment is dropped (unless it is the only one) and the new final numeric
// segment is incremented.
func (v Version) bump() Version {
	segments := v.segments
	if len(segments) > 1 {
		segments = segments[:len(segments)-1]
	}

	// Trailing alphabetic segments cannot be incremented; drop them.
	end := len(segments)
	for end > 1 && !segments[end-1].IsNumber {
		end--
	}
	segments = segments[:end]

	bumped := make([]Segment, len(segments))
	copy(bumped, segments)
	last := &bumped[len(bumped)-1]
	last.Number++
	last.IsNumber = true
	last.Text = strconv.FormatUint(last.Number, 10)

	texts := make([]string, len(bumped))
	for i, seg := range bumped {
		texts[i] = seg.Text
	}
	return Version{segments: bumped, original: strings.Join(texts, ".")}
}

// Constraints is a conjunction of constraints on a single package: a
// candidate version must satisfy every element.
type Constraints []Constraint

// ParseConstraints parses a comma-separated requirement list such as
// ">= 1.2, < 2.0".
func ParseConstraints(s string) (Constraints, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var cs Constraints
	for _, part := range strings.Split(s, ",") {
		c, err := ParseConstraint(part)
		if err != nil {
			return nil, err
		}
		cs = append(cs, c)
	}
	return cs, nil
}

// SatisfiedBy reports whether v satisfies every constraint in the set.
// An empty set admits any version.
func (cs Constraints) SatisfiedBy(v Version) bool {
	for _, c := range cs {
		if !c.SatisfiedBy(v) {
			return false
		}
	}
	return true
}

// String renders the set as a comma-separated list.
func (cs Constraints) String() string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}

// Intersects reports whether some version could satisfy both constraint
// sets. It is a cheap feasibility check run before candidate enumeration:
// it reasons over the operator algebra (pins, lower bounds, upper bounds)
// rather than enumerating versions, and errs on the side of true.
func (cs Constraints) Intersects(other Constraints) bool {
	merged := make(Constraints, 0, len(cs)+len(other))
	merged = append(merged, cs...)
	merged = append(merged, other...)
	return merged.feasible()
}

// feasible reports whether the conjunction admits at least one version.
func (cs Constraints) feasible() bool {
	var (
		pin       *Version
		lower     *Version
		lowerOpen bool // true when the bound itself is excluded (>)
		upper     *Version
		upperOpen bool // true when the bound itself is excluded (<)
		notEqual  []Version
	)

	raiseLower := func(v Version, open bool) {
		if lower == nil || v.Compare(*lower) > 0 || (open && v.Equal(*lower)) {
			lower, lowerOpen = &v, open
		}
	}
	dropUpper := func(v Version, open bool) {
		if upper == nil || v.Compare(*upper) < 0 || (open && v.Equal(*upper)) {
			upper, upperOpen = &v, open
		}
	}

	for _, c := range cs {
		v := c.Version
		switch c.Op {
		case OpEqual:
			if pin != nil && !pin.Equal(v) {
				return false
			}
			pin = &v
		case OpNotEqual:
			notEqual = append(notEqual, v)
		case OpGreater:
			raiseLower(v, true)
		case OpGreaterEq:
			raiseLower(v, false)
		case OpLess:
			dropUpper(v, true)
		case OpLessEq:
			dropUpper(v, false)
		case OpPessimistic:
			raiseLower(v, false)
			dropUpper(c.pessimisticCeil, true)
		}
	}

	if pin != nil {
		return cs.SatisfiedBy(*pin)
	}

	if lower != nil && upper != nil {
		switch c := lower.Compare(*upper); {
		case c > 0:
			return false
		case c == 0:
			if lowerOpen || upperOpen {
				return false
			}
			// Interval is the single point; exclusions can empty it.
			for _, v := range notEqual {
				if v.Equal(*lower) {
					return false
				}
			}
		}
	}

	// Point exclusions alone never empty an interval with extent.
	return true
}
