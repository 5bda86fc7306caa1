package schema

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/providentiaww/autotask-mcp/internal/apierror"
)

// Args holds validated, typed arguments. Integer fields are stored as int,
// numbers as float64, arrays as []string.
type Args map[string]any

// Has reports whether the argument was supplied (or defaulted).
func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// String returns the named string argument, or "" when absent.
func (a Args) String(name string) string {
	v, _ := a[name].(string)
	return v
}

// Int returns the named integer argument, or 0 when absent.
func (a Args) Int(name string) int {
	v, _ := a[name].(int)
	return v
}

// Float returns the named number argument, or 0 when absent.
func (a Args) Float(name string) float64 {
	v, _ := a[name].(float64)
	return v
}

// Bool returns the named boolean argument, or false when absent.
func (a Args) Bool(name string) bool {
	v, _ := a[name].(bool)
	return v
}

// StringSlice returns the named array argument, or nil when absent.
func (a Args) StringSlice(name string) []string {
	v, _ := a[name].([]string)
	return v
}

// Object returns the named object argument, or nil when absent.
func (a Args) Object(name string) map[string]any {
	v, _ := a[name].(map[string]any)
	return v
}

// ValidationError carries every violation found in a rejected input plus a
// single guidance string chosen from the violation kinds present.
type ValidationError struct {
	Code          string   `json:"code"`
	Message       string   `json:"message"`
	Details       []string `json:"details"`
	Guidance      string   `json:"guidance"`
	CorrelationID string   `json:"correlationId"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Outcome is the result of validating one tool call: either Accepted with
// typed arguments or Rejected with a ValidationError, never both.
type Outcome struct {
	Accepted bool
	Args     Args
	Err      *ValidationError
}

// violation kinds, in guidance precedence order.
type kind int

const (
	kindUnknown kind = iota
	kindType
	kindRange
	kindFormat
	kindCross
)

type violation struct {
	path     string
	message  string
	kind     kind
	received any
	noValue  bool
}

var (
	dateShape  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	emailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Validate checks raw arguments against the contract. It is pure and
// deterministic, performs no I/O, and collects every violation in a single
// pass rather than stopping at the first.
func Validate(c *Contract, raw map[string]any) Outcome {
	var violations []violation
	args := make(Args, len(c.fields))

	// Unknown fields first: the contract is closed.
	var unknown []string
	for name := range raw {
		if _, ok := c.byName[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		violations = append(violations, violation{
			path:     name,
			message:  "is not a recognized parameter",
			kind:     kindUnknown,
			received: raw[name],
		})
	}

	for _, f := range c.fields {
		v, present := raw[f.Name]
		if !present {
			if f.Required {
				violations = append(violations, violation{
					path:    f.Name,
					message: "is required but was not provided",
					kind:    kindType,
					noValue: true,
				})
			} else if f.Default != nil {
				args[f.Name] = f.Default
			}
			continue
		}
		typed, viol := checkField(f, v)
		if viol != nil {
			violations = append(violations, *viol)
			continue
		}
		args[f.Name] = typed
	}

	// Cross-field rules run only once the per-field pass is clean.
	if len(violations) == 0 {
		for _, r := range c.rules {
			if msg := r.Check(args); msg != "" {
				violations = append(violations, violation{
					path:    "root",
					message: msg,
					kind:    kindCross,
					noValue: true,
				})
			}
		}
	}

	if len(violations) > 0 {
		return Outcome{Err: newValidationError(violations)}
	}
	return Outcome{Accepted: true, Args: args}
}

func checkField(f Field, v any) (any, *violation) {
	fail := func(k kind, msg string) (any, *violation) {
		return nil, &violation{path: f.Name, message: msg, kind: k, received: v}
	}

	switch f.Type {
	case TypeString:
		s, ok := v.(string)
		if !ok {
			return fail(kindType, "must be a string")
		}
		if f.MinLen != nil && len(s) < *f.MinLen {
			return fail(kindRange, fmt.Sprintf("must be at least %d characters", *f.MinLen))
		}
		if f.MaxLen != nil && len(s) > *f.MaxLen {
			return fail(kindRange, fmt.Sprintf("must be at most %d characters", *f.MaxLen))
		}
		if len(f.Enum) > 0 && !contains(f.Enum, s) {
			return fail(kindRange, "must be one of: "+strings.Join(f.Enum, ", "))
		}
		if f.Pattern != nil && !f.Pattern.MatchString(s) {
			return fail(kindFormat, "must match pattern "+f.Pattern.String())
		}
		switch f.Format {
		case FormatDate:
			if !dateShape.MatchString(s) {
				return fail(kindFormat, "must be a date in YYYY-MM-DD format")
			}
			if _, err := time.Parse("2006-01-02", s); err != nil {
				return fail(kindFormat, "must be a valid calendar date")
			}
		case FormatEmail:
			if !emailShape.MatchString(s) {
				return fail(kindFormat, "must be a valid email address")
			}
		}
		return s, nil

	case TypeInteger:
		n, ok := asFloat(v)
		if !ok || n != math.Trunc(n) {
			return fail(kindType, "must be an integer")
		}
		if f.Min != nil && n < *f.Min {
			return fail(kindRange, fmt.Sprintf("must be at least %v", *f.Min))
		}
		if f.Max != nil && n > *f.Max {
			return fail(kindRange, fmt.Sprintf("must be at most %v", *f.Max))
		}
		return int(n), nil

	case TypeNumber:
		n, ok := asFloat(v)
		if !ok {
			return fail(kindType, "must be a number")
		}
		if f.Min != nil && n < *f.Min {
			return fail(kindRange, fmt.Sprintf("must be at least %v", *f.Min))
		}
		if f.Max != nil && n > *f.Max {
			return fail(kindRange, fmt.Sprintf("must be at most %v", *f.Max))
		}
		return n, nil

	case TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return fail(kindType, "must be a boolean")
		}
		return b, nil

	case TypeStringArray:
		items, ok := asStringSlice(v)
		if !ok {
			return fail(kindType, "must be an array of strings")
		}
		if f.MinLen != nil && len(items) < *f.MinLen {
			return fail(kindRange, fmt.Sprintf("must contain at least %d items", *f.MinLen))
		}
		if f.MaxLen != nil && len(items) > *f.MaxLen {
			return fail(kindRange, fmt.Sprintf("must contain at most %d items", *f.MaxLen))
		}
		return items, nil

	case TypeObject:
		m, ok := v.(map[string]any)
		if !ok {
			return fail(kindType, "must be an object")
		}
		return m, nil
	}
	return fail(kindType, "has an unsupported type")
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func asStringSlice(v any) ([]string, bool) {
	switch items := v.(type) {
	case []string:
		return items, true
	case []any:
		out := make([]string, len(items))
		for i, it := range items {
			s, ok := it.(string)
			if !ok {
				return nil, false
			}
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func newValidationError(violations []violation) *ValidationError {
	details := make([]string, len(violations))
	kinds := make(map[kind]bool, len(violations))
	for i, v := range violations {
		if v.noValue {
			details[i] = fmt.Sprintf("Field '%s': %s", v.path, v.message)
		} else {
			details[i] = fmt.Sprintf("Field '%s': %s (received %s)", v.path, v.message, renderValue(v.received))
		}
		kinds[v.kind] = true
	}
	return &ValidationError{
		Code:          apierror.CodeValidationError,
		Message:       fmt.Sprintf("Input validation failed with %d violation(s)", len(violations)),
		Details:       details,
		Guidance:      guidanceFor(kinds),
		CorrelationID: apierror.NewCorrelationID(),
	}
}

// guidanceFor picks exactly one guidance string from the set of violation
// kinds present, by precedence: unknown field, then type, then range/length,
// then format, then cross-field.
func guidanceFor(kinds map[kind]bool) string {
	switch {
	case kinds[kindUnknown]:
		return "Remove unexpected parameters: use only the fields declared in the tool's input schema."
	case kinds[kindType]:
		return "Check required fields and parameter types against the tool's input schema."
	case kinds[kindRange]:
		return "Check constraints: one or more values are outside their allowed range or length."
	case kinds[kindFormat]:
		return "Check value formats: dates must be YYYY-MM-DD and emails must be valid addresses."
	case kinds[kindCross]:
		return "The combination of supplied fields is not valid for this tool."
	}
	return ""
}

func renderValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		if len(t) > 40 {
			t = t[:40] + "..."
		}
		return fmt.Sprintf("%q", t)
	default:
		s := fmt.Sprintf("%v", v)
		if len(s) > 40 {
			s = s[:40] + "..."
		}
		return s
	}
}
