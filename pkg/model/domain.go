package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Domain validation errors.
var (
	ErrOutOfRange       = errors.New("value out of range")
	ErrInvalidEnumValue = errors.New("invalid enum value")
	ErrValueType        = errors.New("invalid value type")
)

// DomainKind selects the shape of an attribute's value domain.
type DomainKind uint8

const (
	DomainNumeric DomainKind = iota
	DomainEnum
	DomainString
	DomainBool
)

// String returns the domain kind name.
func (k DomainKind) String() string {
	switch k {
	case DomainNumeric:
		return "numeric"
	case DomainEnum:
		return "enum"
	case DomainString:
		return "string"
	case DomainBool:
		return "bool"
	}
	return "unknown"
}

// EnumValue maps one logical value to its SCPI wire token.
type EnumValue struct {
	// Value is the logical value exposed to callers, e.g. "50ohm".
	Value string

	// Token is the token sent on the wire, e.g. "FIFTY".
	Token string

	// Aliases are additional response spellings the instrument may return
	// for this value (short forms, legacy tokens).
	Aliases []string
}

// Domain describes the legal values of one attribute and how they map to
// SCPI text.
type Domain struct {
	// Kind selects which of the fields below apply.
	Kind DomainKind

	// Min and Max bound numeric domains when HasMin/HasMax are set.
	Min    float64
	Max    float64
	HasMin bool
	HasMax bool

	// Unit is the unit of measurement for numeric domains (e.g. "V", "Hz").
	Unit string

	// Values enumerates the legal values of an enum domain, in declaration
	// order.
	Values []EnumValue
}

// Numeric returns a numeric domain bounded on both sides.
func Numeric(min, max float64, unit string) Domain {
	return Domain{Kind: DomainNumeric, Min: min, Max: max, HasMin: true, HasMax: true, Unit: unit}
}

// Unbounded returns a numeric domain with no range constraint.
func Unbounded(unit string) Domain {
	return Domain{Kind: DomainNumeric, Unit: unit}
}

// Enum returns an enum domain over the given values.
func Enum(values ...EnumValue) Domain {
	return Domain{Kind: DomainEnum, Values: values}
}

// StringDomain returns a free-form string domain.
func StringDomain() Domain {
	return Domain{Kind: DomainString}
}

// Bool returns an on/off domain.
func Bool() Domain {
	return Domain{Kind: DomainBool}
}

// Validate checks a logical value against the domain. It reports
// ErrValueType for the wrong Go type, ErrOutOfRange for numeric violations
// and ErrInvalidEnumValue for unknown enum values. Validation happens before
// any I/O; an invalid value is never sent to the instrument.
func (d Domain) Validate(value any) error {
	switch d.Kind {
	case DomainNumeric:
		v, ok := toFloat64(value)
		if !ok {
			return fmt.Errorf("%w: expected numeric, got %T", ErrValueType, value)
		}
		if d.HasMin && v < d.Min {
			return fmt.Errorf("%w: %v < %v %s", ErrOutOfRange, v, d.Min, d.Unit)
		}
		if d.HasMax && v > d.Max {
			return fmt.Errorf("%w: %v > %v %s", ErrOutOfRange, v, d.Max, d.Unit)
		}
	case DomainEnum:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: expected string, got %T", ErrValueType, value)
		}
		if _, found := d.enumByValue(s); !found {
			return fmt.Errorf("%w: %q not in %v", ErrInvalidEnumValue, s, d.enumValues())
		}
	case DomainString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%w: expected string, got %T", ErrValueType, value)
		}
	case DomainBool:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%w: expected bool, got %T", ErrValueType, value)
		}
	}
	return nil
}

// Format renders a validated logical value as SCPI command text.
func (d Domain) Format(value any) (string, error) {
	if err := d.Validate(value); err != nil {
		return "", err
	}
	switch d.Kind {
	case DomainNumeric:
		v, _ := toFloat64(value)
		return strconv.FormatFloat(v, 'e', -1, 64), nil
	case DomainEnum:
		ev, _ := d.enumByValue(value.(string))
		return ev.Token, nil
	case DomainString:
		return value.(string), nil
	case DomainBool:
		if value.(bool) {
			return "1", nil
		}
		return "0", nil
	}
	return "", fmt.Errorf("%w: unknown domain kind %d", ErrValueType, d.Kind)
}

// Parse converts SCPI response text back into a logical value.
func (d Domain) Parse(text string) (any, error) {
	trimmed := strings.TrimSpace(text)
	switch d.Kind {
	case DomainNumeric:
		v, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not numeric", ErrValueType, trimmed)
		}
		return v, nil
	case DomainEnum:
		if ev, ok := d.enumByToken(trimmed); ok {
			return ev.Value, nil
		}
		return nil, fmt.Errorf("%w: response %q matches no declared token", ErrInvalidEnumValue, trimmed)
	case DomainString:
		return strings.Trim(trimmed, `"`), nil
	case DomainBool:
		switch strings.ToUpper(trimmed) {
		case "1", "ON":
			return true, nil
		case "0", "OFF":
			return false, nil
		}
		return nil, fmt.Errorf("%w: %q is not a boolean response", ErrValueType, trimmed)
	}
	return nil, fmt.Errorf("%w: unknown domain kind %d", ErrValueType, d.Kind)
}

func (d Domain) enumByValue(value string) (EnumValue, bool) {
	for _, ev := range d.Values {
		if strings.EqualFold(ev.Value, value) {
			return ev, true
		}
	}
	return EnumValue{}, false
}

func (d Domain) enumByToken(token string) (EnumValue, bool) {
	for _, ev := range d.Values {
		if strings.EqualFold(ev.Token, token) {
			return ev, true
		}
		for _, alias := range ev.Aliases {
			if strings.EqualFold(alias, token) {
				return ev, true
			}
		}
	}
	return EnumValue{}, false
}

func (d Domain) enumValues() []string {
	names := make([]string, 0, len(d.Values))
	for _, ev := range d.Values {
		names = append(names, ev.Value)
	}
	return names
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
