package services

import (
	"testing"

	"github.com/diewo77/go-albaranes/internal/models"
)

func fptr(f float64) *float64 { return &f }
func sptr(s string) *string   { return &s }

func TestParseLineHours(t *testing.T) {
	line, v := ParseLine(LineFields{Format: models.FormatHours, Hours: fptr(7.5)}, 42)
	if !v.Empty() {
		t.Fatalf("unexpected violations: %v", v)
	}
	hours, ok := line.(HoursLine)
	if !ok {
		t.Fatalf("expected HoursLine, got %T", line)
	}
	if hours.Hours != 7.5 {
		t.Fatalf("hours = %v", hours.Hours)
	}
	if hours.UserID != 42 {
		t.Fatalf("acting user not bound: %d", hours.UserID)
	}
}

func TestParseLineMaterial(t *testing.T) {
	line, v := ParseLine(LineFields{Format: models.FormatMaterial, Material: sptr("cement"), Quantity: fptr(12)}, 42)
	if !v.Empty() {
		t.Fatalf("unexpected violations: %v", v)
	}
	mat, ok := line.(MaterialLine)
	if !ok {
		t.Fatalf("expected MaterialLine, got %T", line)
	}
	if mat.Material != "cement" || mat.Quantity != 12 {
		t.Fatalf("unexpected line: %+v", mat)
	}
}

func TestParseLineRejections(t *testing.T) {
	cases := []struct {
		name  string
		in    LineFields
		field string
	}{
		{"unknown format", LineFields{Format: "days"}, "format"},
		{"missing hours", LineFields{Format: models.FormatHours}, "hours"},
		{"negative hours", LineFields{Format: models.FormatHours, Hours: fptr(-1)}, "hours"},
		{"zero hours", LineFields{Format: models.FormatHours, Hours: fptr(0)}, "hours"},
		{"missing material", LineFields{Format: models.FormatMaterial, Quantity: fptr(1)}, "material"},
		{"empty material", LineFields{Format: models.FormatMaterial, Material: sptr(""), Quantity: fptr(1)}, "material"},
		{"missing quantity", LineFields{Format: models.FormatMaterial, Material: sptr("sand")}, "quantity"},
		{"negative quantity", LineFields{Format: models.FormatMaterial, Material: sptr("sand"), Quantity: fptr(-3)}, "quantity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			line, v := ParseLine(tc.in, 1)
			if line != nil {
				t.Fatalf("expected no line, got %T", line)
			}
			if _, ok := v[tc.field]; !ok {
				t.Fatalf("expected violation on %q, got %v", tc.field, v)
			}
		})
	}
}

func TestMaterialLineClearsHoursFields(t *testing.T) {
	uid := uint(7)
	note := models.DeliveryNote{Format: models.FormatHours, Hours: fptr(4), UserID: &uid}
	MaterialLine{Material: "pipes", Quantity: 3}.apply(&note)

	if note.Hours != nil || note.UserID != nil {
		t.Fatal("hours fields must be nil after switching to material")
	}
	if note.Format != models.FormatMaterial {
		t.Fatalf("format = %s", note.Format)
	}
}
