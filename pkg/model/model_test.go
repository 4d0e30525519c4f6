package model

import (
	"errors"
	"testing"
)

func TestNumericDomain(t *testing.T) {
	d := Numeric(-5.0, 5.0, "V")

	t.Run("ValidateInRange", func(t *testing.T) {
		if err := d.Validate(1.25); err != nil {
			t.Fatalf("Validate(1.25) failed: %v", err)
		}
	})

	t.Run("ValidateInteger", func(t *testing.T) {
		if err := d.Validate(3); err != nil {
			t.Fatalf("Validate(3) failed: %v", err)
		}
	})

	t.Run("OutOfRangeHigh", func(t *testing.T) {
		err := d.Validate(5.1)
		if !errors.Is(err, ErrOutOfRange) {
			t.Errorf("expected ErrOutOfRange, got %v", err)
		}
	})

	t.Run("OutOfRangeLow", func(t *testing.T) {
		err := d.Validate(-6.0)
		if !errors.Is(err, ErrOutOfRange) {
			t.Errorf("expected ErrOutOfRange, got %v", err)
		}
	})

	t.Run("WrongType", func(t *testing.T) {
		err := d.Validate("fast")
		if !errors.Is(err, ErrValueType) {
			t.Errorf("expected ErrValueType, got %v", err)
		}
	})

	t.Run("Format", func(t *testing.T) {
		s, err := d.Format(0.0)
		if err != nil {
			t.Fatalf("Format failed: %v", err)
		}
		if s != "0e+00" {
			t.Errorf("expected 0e+00, got %q", s)
		}
	})

	t.Run("Parse", func(t *testing.T) {
		v, err := d.Parse("2.5E-01\n")
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if v != 0.25 {
			t.Errorf("expected 0.25, got %v", v)
		}
	})
}

func TestEnumDomain(t *testing.T) {
	d := Enum(
		EnumValue{Value: "50ohm", Token: "FIFTY", Aliases: []string{"FIFT"}},
		EnumValue{Value: "highz", Token: "OMEG"},
	)

	t.Run("Validate", func(t *testing.T) {
		if err := d.Validate("highz"); err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
	})

	t.Run("InvalidValue", func(t *testing.T) {
		err := d.Validate("75ohm")
		if !errors.Is(err, ErrInvalidEnumValue) {
			t.Errorf("expected ErrInvalidEnumValue, got %v", err)
		}
	})

	t.Run("FormatUsesToken", func(t *testing.T) {
		s, err := d.Format("50ohm")
		if err != nil {
			t.Fatalf("Format failed: %v", err)
		}
		if s != "FIFTY" {
			t.Errorf("expected FIFTY, got %q", s)
		}
	})

	t.Run("ParseToken", func(t *testing.T) {
		v, err := d.Parse("OMEG")
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if v != "highz" {
			t.Errorf("expected highz, got %v", v)
		}
	})

	t.Run("ParseAlias", func(t *testing.T) {
		v, err := d.Parse("fift")
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if v != "50ohm" {
			t.Errorf("expected 50ohm, got %v", v)
		}
	})

	t.Run("ParseUnknownToken", func(t *testing.T) {
		_, err := d.Parse("SEVENTYFIVE")
		if !errors.Is(err, ErrInvalidEnumValue) {
			t.Errorf("expected ErrInvalidEnumValue, got %v", err)
		}
	})
}

func TestBoolDomain(t *testing.T) {
	d := Bool()

	t.Run("Format", func(t *testing.T) {
		on, _ := d.Format(true)
		off, _ := d.Format(false)
		if on != "1" || off != "0" {
			t.Errorf("expected 1/0, got %q/%q", on, off)
		}
	})

	t.Run("ParseVariants", func(t *testing.T) {
		for text, want := range map[string]bool{"1": true, "ON": true, "0": false, "off": false} {
			v, err := d.Parse(text)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", text, err)
			}
			if v != want {
				t.Errorf("Parse(%q) = %v, want %v", text, v, want)
			}
		}
	})

	t.Run("ParseGarbage", func(t *testing.T) {
		if _, err := d.Parse("MAYBE"); err == nil {
			t.Error("expected error for non-boolean response")
		}
	})
}

func TestAccessFlags(t *testing.T) {
	if !AccessReadWrite.CanRead() || !AccessReadWrite.CanWrite() {
		t.Error("AccessReadWrite should allow both operations")
	}
	if AccessRead.CanWrite() {
		t.Error("AccessRead should not allow writes")
	}
	if AccessRead.String() != "R" || AccessReadWrite.String() != "RW" {
		t.Errorf("unexpected access strings: %q %q", AccessRead.String(), AccessReadWrite.String())
	}
}

func TestQualifiedName(t *testing.T) {
	if got := QualifiedName("trigger", 0, "level"); got != "trigger.level" {
		t.Errorf("expected trigger.level, got %q", got)
	}
	if got := QualifiedName("channel", 2, "scale"); got != "channel[2].scale" {
		t.Errorf("expected channel[2].scale, got %q", got)
	}
}

func TestExpandIndex(t *testing.T) {
	if got := ExpandIndex(":channel{ch}:scale %s", 3); got != ":channel3:scale %s" {
		t.Errorf("unexpected expansion: %q", got)
	}
	// Non-indexed groups leave templates untouched.
	if got := ExpandIndex(":trigger:edge:level?", 0); got != ":trigger:edge:level?" {
		t.Errorf("unexpected expansion: %q", got)
	}
}

func TestGroupDeclLookup(t *testing.T) {
	g := GroupDecl{
		Name: "trigger",
		Attributes: []AttributeDescriptor{
			{Name: "level", Domain: Unbounded("V"), Access: AccessReadWrite},
			{Name: "source", Domain: StringDomain(), Access: AccessReadWrite},
		},
	}

	attr, ok := g.Attribute("source")
	if !ok {
		t.Fatal("expected to find source attribute")
	}
	if attr.Name != "source" {
		t.Errorf("expected source, got %q", attr.Name)
	}

	if _, ok := g.Attribute("slope"); ok {
		t.Error("did not expect to find slope attribute")
	}
}
