// Package export renders a room's board to static documents.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dkeye/Canvas/internal/core"
	"github.com/dkeye/Canvas/internal/domain"
	"github.com/jung-kurt/gofpdf"
)

const minLineWidth = 0.5

// RenderPDF replays ops and writes the visible strokes as a single page
// of width x height points, one point per canvas pixel.
func RenderPDF(w io.Writer, ops []domain.Operation, width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid page size %gx%g", width, height)
	}
	p := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: width, Ht: height},
	})
	p.SetMargins(0, 0, 0)
	p.SetAutoPageBreak(false, 0)
	p.AddPage()
	p.SetLineCapStyle("round")
	p.SetLineJoinStyle("round")

	for _, op := range core.Replay(ops) {
		stroke, ok := op.Payload.(domain.DrawStroke)
		if !ok || len(stroke.Points) == 0 {
			continue
		}
		r, g, b := parseColor(stroke.Color)
		p.SetDrawColor(r, g, b)
		p.SetFillColor(r, g, b)
		lw := max(stroke.Width, minLineWidth)
		p.SetLineWidth(lw)

		if len(stroke.Points) == 1 {
			pt := stroke.Points[0]
			p.Circle(pt.X, pt.Y, lw/2, "F")
			continue
		}
		for i := 1; i < len(stroke.Points); i++ {
			a, b := stroke.Points[i-1], stroke.Points[i]
			p.Line(a.X, a.Y, b.X, b.Y)
		}
	}

	if err := p.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// parseColor understands #rgb and #rrggbb. Anything else is drawn black.
func parseColor(s string) (int, int, int) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
