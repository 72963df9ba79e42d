// Package pdf renders delivery notes with maroto. The output is a pure
// function of the note's current field values plus an optional signature
// image; handlers decide when to upload and cache the result.
package pdf

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/diewo77/go-albaranes/internal/models"
)

// Renderer builds delivery-note PDFs.
type Renderer struct{}

func NewRenderer() *Renderer { return &Renderer{} }

// ErrUnsupportedImage rejects signature bytes that are neither PNG nor
// JPEG.
var ErrUnsupportedImage = errors.New("unsupported signature image type")

// Render produces the PDF bytes for a note. The note must have its Client,
// Project, Company and (for hours notes) User associations preloaded.
// signature, when non-nil, is embedded in the signature block; PNG and JPEG
// images are accepted.
func (r *Renderer) Render(note *models.DeliveryNote, signature []byte) ([]byte, error) {
	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	m.AddRows(
		row.New(14).Add(
			text.NewCol(8, "DELIVERY NOTE", props.Text{
				Size:  18,
				Style: fontstyle.Bold,
			}),
			text.NewCol(4, note.CreatedAt.Format("02/01/2006"), props.Text{
				Size:  10,
				Align: align.Right,
				Top:   4,
			}),
		),
		row.New(6),
	)

	client := note.Client
	m.AddRows(
		row.New(5).Add(
			text.NewCol(6, "DELIVER TO", props.Text{Size: 9, Style: fontstyle.Bold}),
			text.NewCol(6, "PROJECT", props.Text{Size: 9, Style: fontstyle.Bold}),
		),
		row.New(5).Add(
			text.NewCol(6, client.Name, props.Text{Size: 9}),
			text.NewCol(6, note.Project.Name, props.Text{Size: 9}),
		),
		row.New(5).Add(
			text.NewCol(6, fmt.Sprintf("%s, %d", client.Street, client.Number), props.Text{Size: 9}),
			text.NewCol(6, note.Project.Description, props.Text{Size: 9}),
		),
		row.New(5).Add(
			text.NewCol(6, fmt.Sprintf("%d %s (%s)", client.Postal, client.City, client.Province), props.Text{Size: 9}),
		),
		row.New(5).Add(
			text.NewCol(6, client.Email, props.Text{Size: 9}),
		),
		row.New(8),
	)

	m.AddRows(
		row.New(6).Add(
			text.NewCol(12, note.Company.Name, props.Text{
				Size:  11,
				Style: fontstyle.Bold,
				Align: align.Center,
			}),
		),
		row.New(5).Add(
			text.NewCol(12, fmt.Sprintf("%s, %d - %d %s", note.Company.Street, note.Company.Number, note.Company.Postal, note.Company.City), props.Text{
				Size:  9,
				Align: align.Center,
			}),
		),
		row.New(8),
	)

	m.AddRow(6,
		text.NewCol(6, "DESCRIPTION", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(3, "QTY", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
		text.NewCol(3, "UNIT", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
	)
	m.AddRow(6, lineCols(note)...)

	if note.Description != "" {
		m.AddRows(
			row.New(6),
			row.New(5).Add(text.NewCol(12, "NOTES", props.Text{Size: 9, Style: fontstyle.Bold})),
			row.New(5).Add(text.NewCol(12, note.Description, props.Text{Size: 9})),
		)
	}

	m.AddRows(
		row.New(10),
		row.New(5).Add(text.NewCol(12, "SIGNATURE", props.Text{Size: 9, Style: fontstyle.Bold})),
	)
	if signature != nil {
		ext, err := signatureExtension(signature)
		if err != nil {
			return nil, fmt.Errorf("render delivery note %d: %w", note.ID, err)
		}
		m.AddRow(30, image.NewFromBytesCol(4, signature, ext, props.Rect{
			Percent: 90,
		}))
	} else {
		m.AddRow(10, text.NewCol(12, "Pending signature", props.Text{Size: 9, Style: fontstyle.Italic}))
	}

	m.AddRows(
		row.New(8),
		row.New(5).Add(
			text.NewCol(12, "Generated "+time.Now().Format("02/01/2006 15:04"), props.Text{
				Size:  7,
				Align: align.Right,
			}),
		),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("render delivery note %d: %w", note.ID, err)
	}
	return doc.GetBytes(), nil
}

// signatureExtension sniffs the signature bytes and picks the matching
// maroto extension. The embedder decodes by declared format, so a wrong
// extension fails the whole document generation.
func signatureExtension(data []byte) (extension.Type, error) {
	switch http.DetectContentType(data) {
	case "image/png":
		return extension.Png, nil
	case "image/jpeg":
		return extension.Jpg, nil
	}
	return "", ErrUnsupportedImage
}

// lineCols renders the single billing line of the note depending on its
// format variant.
func lineCols(note *models.DeliveryNote) []core.Col {
	if note.Format == models.FormatMaterial {
		material := ""
		if note.Material != nil {
			material = *note.Material
		}
		qty := 0.0
		if note.Quantity != nil {
			qty = *note.Quantity
		}
		return []core.Col{
			text.NewCol(6, material, props.Text{Size: 9}),
			text.NewCol(3, fmt.Sprintf("%.2f", qty), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(3, "units", props.Text{Size: 9, Align: align.Right}),
		}
	}

	worker := "-"
	if note.User != nil {
		worker = note.User.Name
	}
	hours := 0.0
	if note.Hours != nil {
		hours = *note.Hours
	}
	return []core.Col{
		text.NewCol(6, "Work by "+worker, props.Text{Size: 9}),
		text.NewCol(3, fmt.Sprintf("%.2f", hours), props.Text{Size: 9, Align: align.Right}),
		text.NewCol(3, "hours", props.Text{Size: 9, Align: align.Right}),
	}
}
