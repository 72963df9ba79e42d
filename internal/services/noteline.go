package services

import (
	"github.com/diewo77/go-albaranes/internal/models"
	"github.com/diewo77/go-albaranes/validation"
)

// NoteLine is the format-dependent part of a delivery note. Each variant
// carries only the fields its format requires and is validated at
// construction, so a note can never be half one format and half the other.
type NoteLine interface {
	apply(n *models.DeliveryNote)
}

// HoursLine bills worked hours. The acting user is bound as the note's
// responsible worker.
type HoursLine struct {
	Hours  float64
	UserID uint
}

func (l HoursLine) apply(n *models.DeliveryNote) {
	n.Format = models.FormatHours
	n.Hours = &l.Hours
	n.UserID = &l.UserID
	n.Material = nil
	n.Quantity = nil
}

// MaterialLine bills a named material and quantity.
type MaterialLine struct {
	Material string
	Quantity float64
}

func (l MaterialLine) apply(n *models.DeliveryNote) {
	n.Format = models.FormatMaterial
	n.Material = &l.Material
	n.Quantity = &l.Quantity
	n.UserID = nil
	n.Hours = nil
}

// LineFields is the raw, format-agnostic input as it arrives on the wire.
type LineFields struct {
	Format   string   `json:"format"`
	Hours    *float64 `json:"hours"`
	Material *string  `json:"material"`
	Quantity *float64 `json:"quantity"`
}

// ParseLine validates the conditional requirements of the chosen format and
// builds the corresponding variant. actingUserID becomes the responsible
// worker for hours notes. Violations are reported field by field; a
// non-empty map means no variant was built.
func ParseLine(in LineFields, actingUserID uint) (NoteLine, validation.Violations) {
	v := make(validation.Violations)
	validation.OneOf("format", in.Format, []string{models.FormatHours, models.FormatMaterial}, v)
	if !v.Empty() {
		return nil, v
	}

	switch in.Format {
	case models.FormatHours:
		if in.Hours == nil {
			v["hours"] = "required"
			return nil, v
		}
		validation.PositiveFloat("hours", *in.Hours, v)
		if !v.Empty() {
			return nil, v
		}
		return HoursLine{Hours: *in.Hours, UserID: actingUserID}, v
	default:
		if in.Material == nil || *in.Material == "" {
			v["material"] = "required"
		}
		if in.Quantity == nil {
			v["quantity"] = "required"
		} else {
			validation.PositiveFloat("quantity", *in.Quantity, v)
		}
		if !v.Empty() {
			return nil, v
		}
		return MaterialLine{Material: *in.Material, Quantity: *in.Quantity}, v
	}
}
