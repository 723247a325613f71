// Package receipt draws a sales draft as a small PNG receipt.
package receipt

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"github.com/dapurasri/backoffice/internal/model"
	"github.com/nfnt/resize"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	columns    = 40
	lineHeight = 16
	margin     = 10
	maxScale   = 4
)

type Options struct {
	Title string
	// Scale enlarges the image by an integer factor, 1 to 4.
	Scale int
}

// Lines returns the text rows of the receipt, one per printed line.
func Lines(d *model.Draft, title string) []string {
	rule := strings.Repeat("-", columns)
	rows := []string{center(title), center(model.LongDate(d.Date))}
	if d.TransactionNo != "" {
		rows = append(rows, center(d.TransactionNo))
	}
	if d.PaymentMethodName != "" {
		rows = append(rows, "Pembayaran: "+d.PaymentMethodName)
	}
	rows = append(rows, rule)

	for _, l := range d.ValidLines() {
		rows = append(rows, clip(l.ProductName))
		qty := l.Quantity.String()
		if l.Unit != "" {
			qty += " " + l.Unit
		}
		left := fmt.Sprintf("  %s x %s", qty, model.FormatNumber(l.UnitPrice))
		rows = append(rows, justify(left, model.FormatNumber(model.LineSubtotal(l.Quantity, l.UnitPrice))))
	}

	rows = append(rows, rule, justify("TOTAL", model.FormatRupiah(d.Total)), "", center("Terima kasih"))
	return rows
}

// Render draws the receipt and encodes it as PNG.
func Render(d *model.Draft, opts Options) ([]byte, error) {
	if d == nil {
		return nil, errors.New("receipt: nil draft")
	}
	scale := opts.Scale
	if scale < 1 {
		scale = 1
	}
	if scale > maxScale {
		scale = maxScale
	}
	title := opts.Title
	if title == "" {
		title = "Dapur Asri"
	}

	rows := Lines(d, title)
	face := basicfont.Face7x13
	width := margin*2 + columns*face.Advance
	height := margin*2 + len(rows)*lineHeight

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: face,
	}
	for i, row := range rows {
		drawer.Dot = fixed.P(margin, margin+(i+1)*lineHeight-3)
		drawer.DrawString(row)
	}

	var out image.Image = img
	if scale > 1 {
		out = resize.Resize(uint(width*scale), 0, img, resize.NearestNeighbor)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("receipt: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func clip(s string) string {
	r := []rune(s)
	if len(r) > columns {
		return string(r[:columns])
	}
	return s
}

func center(s string) string {
	s = clip(s)
	pad := (columns - len([]rune(s))) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}

func justify(left, right string) string {
	gap := columns - len([]rune(left)) - len([]rune(right))
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}
