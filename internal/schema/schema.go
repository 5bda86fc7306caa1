// Package schema defines per-tool input contracts and validates tool-call
// arguments against them before any side-effecting code runs. Contracts are
// closed: a field that is not declared is always rejected. The same contract
// object that drives validation also derives the JSON schema advertised via
// tools/list, so the enforced shape and the published shape cannot drift.
package schema

import "regexp"

// FieldType enumerates the value types a contract field can declare.
type FieldType string

const (
	TypeString      FieldType = "string"
	TypeInteger     FieldType = "integer"
	TypeNumber      FieldType = "number"
	TypeBoolean     FieldType = "boolean"
	TypeStringArray FieldType = "array"
	TypeObject      FieldType = "object"
)

// Value formats understood by the validator.
const (
	FormatDate  = "date"
	FormatEmail = "email"
)

// Field is one declared parameter of a tool contract. Fields are plain
// values; the With* methods return modified copies so shared templates can
// be specialized without mutating the template.
type Field struct {
	Name        string
	Type        FieldType
	Description string
	Required    bool
	Default     any
	Min         *float64
	Max         *float64
	MinLen      *int
	MaxLen      *int
	Pattern     *regexp.Regexp
	Format      string
	Enum        []string
}

// String declares an optional string field.
func String(name, description string) Field {
	return Field{Name: name, Type: TypeString, Description: description}
}

// Int declares an optional integer field.
func Int(name, description string) Field {
	return Field{Name: name, Type: TypeInteger, Description: description}
}

// Number declares an optional floating-point field.
func Number(name, description string) Field {
	return Field{Name: name, Type: TypeNumber, Description: description}
}

// Bool declares an optional boolean field.
func Bool(name, description string) Field {
	return Field{Name: name, Type: TypeBoolean, Description: description}
}

// StringArray declares an optional array-of-strings field.
func StringArray(name, description string) Field {
	return Field{Name: name, Type: TypeStringArray, Description: description}
}

// Object declares an optional free-form object field. Nested keys are passed
// through untyped; constraints apply at the downstream API.
func Object(name, description string) Field {
	return Field{Name: name, Type: TypeObject, Description: description}
}

// Require marks the field as mandatory.
func (f Field) Require() Field {
	f.Required = true
	return f
}

// WithDefault sets the value applied when the field is absent.
func (f Field) WithDefault(v any) Field {
	f.Default = v
	return f
}

// WithRange bounds a numeric field inclusively.
func (f Field) WithRange(min, max float64) Field {
	f.Min, f.Max = &min, &max
	return f
}

// WithMin bounds a numeric field from below.
func (f Field) WithMin(min float64) Field {
	f.Min = &min
	return f
}

// WithLength bounds a string field's length inclusively.
func (f Field) WithLength(min, max int) Field {
	f.MinLen, f.MaxLen = &min, &max
	return f
}

// WithFormat attaches a named value format (FormatDate, FormatEmail).
func (f Field) WithFormat(format string) Field {
	f.Format = format
	return f
}

// WithPattern attaches a regular expression the value must match. Panics on
// an invalid expression; contracts are built once at startup.
func (f Field) WithPattern(expr string) Field {
	f.Pattern = regexp.MustCompile(expr)
	return f
}

// WithEnum restricts the value to a fixed set.
func (f Field) WithEnum(values ...string) Field {
	f.Enum = values
	return f
}

// WithDescription replaces the description, for specializing templates.
func (f Field) WithDescription(description string) Field {
	f.Description = description
	return f
}

// Shared field templates. Tool contracts compose these instead of redefining
// the same constraints per tool.

// PageSizeStandard is the default page-size preset: 50 results, capped at 500.
func PageSizeStandard() Field {
	return Int("pageSize", "Maximum number of results to return (default 50, max 500)").
		WithDefault(50).WithRange(1, 500)
}

// PageSizeCompact is for entities with larger payloads: 25 results, capped at 100.
func PageSizeCompact() Field {
	return Int("pageSize", "Maximum number of results to return (default 25, max 100)").
		WithDefault(25).WithRange(1, 100)
}

// PageSizeLarge is for the heaviest entities: 10 results, capped at 50.
func PageSizeLarge() Field {
	return Int("pageSize", "Maximum number of results to return (default 10, max 50)").
		WithDefault(10).WithRange(1, 50)
}

// ID is a positive Autotask record identifier.
func ID(name, description string) Field {
	return Int(name, description).WithMin(1)
}

// SearchText is a free-text search term.
func SearchText(name, description string) Field {
	return String(name, description).WithLength(1, 255)
}

// DateString is a YYYY-MM-DD date value.
func DateString(name, description string) Field {
	return String(name, description).WithFormat(FormatDate)
}

// Email is an email-shaped string value.
func Email(name, description string) Field {
	return String(name, description).WithFormat(FormatEmail)
}

// CrossRule is a constraint spanning multiple fields, evaluated only after
// all per-field checks pass. Check returns an empty string when satisfied,
// otherwise the violation message.
type CrossRule struct {
	Description string
	Check       func(args Args) string
}

// RequireAnyExcept demands that at least one declared field besides the
// named ones is present. Update-style contracts use it so a call carrying
// only the identifier is rejected.
func RequireAnyExcept(names ...string) CrossRule {
	excluded := make(map[string]bool, len(names))
	for _, n := range names {
		excluded[n] = true
	}
	return CrossRule{
		Description: "At least one updatable field must be provided in addition to the identifier.",
		Check: func(args Args) string {
			for name := range args {
				if !excluded[name] {
					return ""
				}
			}
			return "at least one field besides the identifier must be provided"
		},
	}
}

// Contract is the closed input shape of one tool.
type Contract struct {
	fields []Field
	byName map[string]int
	rules  []CrossRule
}

// NewContract builds a contract from an ordered field list. Duplicate field
// names panic; contracts are assembled once at startup.
func NewContract(fields ...Field) *Contract {
	c := &Contract{fields: fields, byName: make(map[string]int, len(fields))}
	for i, f := range fields {
		if _, dup := c.byName[f.Name]; dup {
			panic("schema: duplicate field " + f.Name)
		}
		c.byName[f.Name] = i
	}
	return c
}

// WithRule appends a cross-field rule.
func (c *Contract) WithRule(rules ...CrossRule) *Contract {
	c.rules = append(c.rules, rules...)
	return c
}

// Fields returns the declared fields in declaration order.
func (c *Contract) Fields() []Field {
	return c.fields
}

// JSONSchema derives the advertised inputSchema from the contract. Because
// the map is built from the same descriptors the validator enforces,
// discovery and enforcement cannot disagree.
func (c *Contract) JSONSchema() map[string]any {
	properties := make(map[string]any, len(c.fields))
	var required []string
	for _, f := range c.fields {
		prop := map[string]any{"type": string(f.Type)}
		if f.Description != "" {
			prop["description"] = f.Description
		}
		if f.Default != nil {
			prop["default"] = f.Default
		}
		if f.Min != nil {
			prop["minimum"] = *f.Min
		}
		if f.Max != nil {
			prop["maximum"] = *f.Max
		}
		if f.MinLen != nil {
			prop["minLength"] = *f.MinLen
		}
		if f.MaxLen != nil {
			prop["maxLength"] = *f.MaxLen
		}
		if f.Pattern != nil {
			prop["pattern"] = f.Pattern.String()
		}
		if f.Format != "" {
			prop["format"] = f.Format
		}
		if len(f.Enum) > 0 {
			prop["enum"] = f.Enum
		}
		if f.Type == TypeStringArray {
			prop["items"] = map[string]any{"type": "string"}
		}
		properties[f.Name] = prop
		if f.Required {
			required = append(required, f.Name)
		}
	}
	s := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}
