package backend

import (
	"bytes"
	"context"
	"time"

	"github.com/binara/printsvc/internal/domain/printing"
	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"
)

const defaultCoreFont = "Courier"

// VectorOptions configures the PDF encoder
type VectorOptions struct {
	// Compress enables stream compression.
	Compress bool
	// Creator is written to the document info dictionary.
	Creator string
	// Now supplies the creation date. Defaults to time.Now.
	Now func() time.Time
}

// VectorEncoder renders plans onto a PDF canvas in points. Core fonts are
// limited to the Windows-1252 repertoire; a profile FontFile registers a
// TrueType font with full Unicode coverage instead.
type VectorEncoder struct {
	opts VectorOptions
}

// NewVectorEncoder creates a PDF encoder
func NewVectorEncoder(opts VectorOptions) *VectorEncoder {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &VectorEncoder{opts: opts}
}

// Kind returns BackendVectorCanvas
func (e *VectorEncoder) Kind() printing.BackendKind {
	return printing.BackendVectorCanvas
}

// Encode draws every PlaceText at its absolute position and starts a new
// page for each PageBreak.
func (e *VectorEncoder) Encode(ctx context.Context, plan *printing.Plan, profile printing.DeviceProfile) (*printing.Output, error) {
	if err := checkKind(printing.BackendVectorCanvas, profile); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: profile.PageSize.Width, Ht: profile.PageSize.Height},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCompression(e.opts.Compress)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(e.opts.Now())
	pdf.SetTitle(plan.Title, true)
	if e.opts.Creator != "" {
		pdf.SetCreator(e.opts.Creator, true)
	}

	family := profile.FontName
	translate := func(s string) string { return s }
	core := profile.FontFile == ""
	if core {
		if family == "" {
			family = defaultCoreFont
		}
		translate = pdf.UnicodeTranslatorFromDescriptor("")
	} else {
		if family == "" {
			family = "Document"
		}
		pdf.AddUTF8Font(family, "", profile.FontFile)
		pdf.AddUTF8Font(family, "B", profile.FontFile)
	}

	pdf.AddPage()
	for _, in := range plan.Instructions {
		switch in.Op {
		case printing.OpSetFont:
			pdf.SetFont(family, fontStyle(in.Style), profile.FontSizes.For(in.Style.Size))
		case printing.OpPlaceText:
			if core {
				if err := checkCharmap(printing.BackendVectorCanvas, charmap.Windows1252, in.Text); err != nil {
					return nil, err
				}
			}
			y := in.Y
			if profile.Origin.BottomLeft {
				y = profile.PageSize.Height - in.Y
			}
			pdf.Text(in.X, y, translate(in.Text))
		case printing.OpPageBreak:
			pdf.AddPage()
		}
		if pdf.Err() {
			break
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &printing.PrintError{
			Kind:    printing.KindConfiguration,
			Message: "pdf rendering failed for profile " + profile.Name,
			Cause:   err,
		}
	}

	return &printing.Output{
		Kind:        printing.BackendVectorCanvas,
		Data:        buf.Bytes(),
		ContentType: "application/pdf",
		Pages:       plan.Pages,
	}, nil
}

// fontStyle maps a style directive to an fpdf style string
func fontStyle(s printing.StyleDirective) string {
	style := ""
	if s.Bold() {
		style += "B"
	}
	if s.Underline {
		style += "U"
	}
	return style
}

var _ Encoder = (*VectorEncoder)(nil)
