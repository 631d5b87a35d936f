// Package render stamps text annotations onto PDF pages.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"pdfmark/internal/domain"
)

const (
	DefaultFontSize = 12.0
	stampFont       = "Helvetica"
)

// Annotation is one text box. Page is zero-based; X and Y are measured from
// the top-left corner in viewport units. A non-zero Width or Height bounds
// the box: the font shrinks until the text fits, down to one point.
type Annotation struct {
	Page     int     `json:"page"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Text     string  `json:"text"`
	FontSize float64 `json:"font_size"`
}

// Viewport is the size the client rendered each page at. A zero viewport
// means coordinates are already PDF points.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Request struct {
	Annotations []Annotation `json:"annotations"`
	Viewport    Viewport     `json:"viewport"`
}

var disableConfigDir sync.Once

type Renderer struct {
	conf *model.Configuration
}

func NewRenderer() *Renderer {
	// pdfcpu would otherwise create a config dir under the user's home.
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Renderer{conf: conf}
}

// config returns a per-call copy since pdfcpu writes to the configuration
// it is given. A "%t" in stamp text expands to TimestampFormat, so with the
// format set to "%" escapeText can carry a literal percent sign through.
func (r *Renderer) config() *model.Configuration {
	conf := *r.conf
	conf.Cmd = model.ADDWATERMARKS
	conf.TimestampFormat = "%"
	return &conf
}

// escapeText keeps pdfcpu from expanding %p, %P, %t and %v in user text.
func escapeText(s string) string {
	return strings.ReplaceAll(s, "%", "%t")
}

// Render returns a new document with every annotation stamped on top of its
// page. The source is never modified. Nothing is stamped unless every
// annotation is valid.
func (r *Renderer) Render(source []byte, req Request) ([]byte, error) {
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(source), r.config())
	if err != nil {
		return nil, domain.Render(err, "source is not a readable PDF")
	}
	dims, err := ctx.PageDims()
	if err != nil {
		return nil, domain.Render(err, "failed to read page sizes")
	}
	pageCount := ctx.PageCount
	if len(dims) < pageCount {
		return nil, domain.Render(nil, "document reports %d pages but %d page sizes", pageCount, len(dims))
	}

	if err := validate(req, pageCount); err != nil {
		return nil, err
	}

	stamps := make(map[int][]*model.Watermark)
	for _, a := range req.Annotations {
		if a.Text == "" {
			continue
		}
		p := placement(a, dims[a.Page], req.Viewport)
		wm, err := api.TextWatermark(escapeText(a.Text), p.description(), true, false, types.POINTS)
		if err != nil {
			return nil, domain.Render(err, "failed to build stamp for page %d", a.Page)
		}
		// pdfcpu numbers pages from 1. Slice order is draw order.
		stamps[a.Page+1] = append(stamps[a.Page+1], wm)
	}
	if len(stamps) == 0 {
		return source, nil
	}

	if err := unshareContents(ctx, stamps); err != nil {
		return nil, domain.Render(err, "failed to prepare page contents")
	}
	if err := pdfcpu.AddWatermarksSliceMap(ctx, stamps); err != nil {
		return nil, domain.Render(err, "failed to stamp annotations")
	}

	var out bytes.Buffer
	if err := api.WriteContext(ctx, &out); err != nil {
		return nil, domain.Render(err, "failed to write document")
	}
	return out.Bytes(), nil
}

// unshareContents gives every stamped page its own copy of each content
// stream another page also draws from. pdfcpu patches a page's content
// streams in place, so a shared stream would carry the stamp onto every
// page that uses it.
func unshareContents(ctx *model.Context, stamps map[int][]*model.Watermark) error {
	users := make(map[int]int)
	for nr := 1; nr <= ctx.PageCount; nr++ {
		d, _, _, err := ctx.PageDict(nr, false)
		if err != nil {
			return err
		}
		contents, _, err := pageContents(ctx.XRefTable, d)
		if err != nil {
			return err
		}
		for _, o := range contents {
			if ir, ok := o.(types.IndirectRef); ok {
				users[ir.ObjectNumber.Value()]++
			}
		}
	}

	for nr := range stamps {
		d, _, _, err := ctx.PageDict(nr, false)
		if err != nil {
			return err
		}
		contents, isArray, err := pageContents(ctx.XRefTable, d)
		if err != nil {
			return err
		}

		own := make(types.Array, len(contents))
		changed := false
		for i, o := range contents {
			own[i] = o
			ir, ok := o.(types.IndirectRef)
			if !ok || users[ir.ObjectNumber.Value()] < 2 {
				continue
			}
			c, err := cloneStream(ctx.XRefTable, ir)
			if err != nil {
				return err
			}
			users[ir.ObjectNumber.Value()]--
			own[i] = *c
			changed = true
		}
		if !changed {
			continue
		}
		if isArray {
			d.Update("Contents", own)
		} else {
			d.Update("Contents", own[0])
		}
	}
	return nil
}

// pageContents returns the entries of a page's /Contents. isArray reports
// whether the page lists them as an array rather than a single stream.
func pageContents(xt *model.XRefTable, d types.Dict) (contents types.Array, isArray bool, err error) {
	o, found := d.Find("Contents")
	if !found || o == nil {
		return nil, false, nil
	}
	if ir, ok := o.(types.IndirectRef); ok {
		obj, err := xt.Dereference(ir)
		if err != nil {
			return nil, false, err
		}
		if _, ok := obj.(types.StreamDict); ok {
			return types.Array{ir}, false, nil
		}
		o = obj
	}
	arr, ok := o.(types.Array)
	if !ok {
		return nil, false, nil
	}
	return append(types.Array(nil), arr...), true, nil
}

func cloneStream(xt *model.XRefTable, ir types.IndirectRef) (*types.IndirectRef, error) {
	sd, _, err := xt.DereferenceStreamDict(ir)
	if err != nil {
		return nil, err
	}
	if sd == nil {
		return nil, errors.New("content entry is not a stream")
	}
	c := sd.Clone().(types.StreamDict)
	c.Raw = bytes.Clone(sd.Raw)
	c.Content = bytes.Clone(sd.Content)
	return xt.IndRefForNewObject(c)
}

func validate(req Request, pageCount int) error {
	if req.Viewport.Width < 0 || req.Viewport.Height < 0 || !finite(req.Viewport.Width, req.Viewport.Height) {
		return domain.Render(nil, "viewport must be non-negative")
	}
	for i, a := range req.Annotations {
		if a.Page < 0 || a.Page >= pageCount {
			return domain.Render(nil, "annotation %d: page %d out of range (document has %d pages)", i, a.Page, pageCount)
		}
		if !finite(a.X, a.Y, a.Width, a.Height, a.FontSize) {
			return domain.Render(nil, "annotation %d: coordinates must be finite numbers", i)
		}
		if a.Width < 0 || a.Height < 0 || a.FontSize < 0 {
			return domain.Render(nil, "annotation %d: width, height and font size must be non-negative", i)
		}
	}
	return nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type stampPlacement struct {
	DX, DY   float64 // offset from the page's top-left corner, in points
	FontSize float64
}

// placement converts viewport units to PDF points for one page.
func placement(a Annotation, page types.Dim, vp Viewport) stampPlacement {
	sx, sy := 1.0, 1.0
	if vp.Width > 0 && vp.Height > 0 {
		sx = page.Width / vp.Width
		sy = page.Height / vp.Height
	}
	size := a.FontSize
	if size == 0 {
		size = DefaultFontSize
	}
	size *= sy
	if a.Width > 0 || a.Height > 0 {
		size = float64(fitFont(a.Text, fontPoints(size), a.Width*sx, a.Height*sy))
	}
	return stampPlacement{
		DX:       a.X * sx,
		DY:       a.Y * sy,
		FontSize: size,
	}
}

// fitFont steps points down until text fits maxW by maxH. A zero bound is
// ignored.
func fitFont(text string, points int, maxW, maxH float64) int {
	for points > 1 {
		wide := maxW > 0 && font.TextWidth(text, stampFont, points) > maxW
		tall := maxH > 0 && font.LineHeight(stampFont, points) > maxH
		if !wide && !tall {
			break
		}
		points--
	}
	return points
}

func (p stampPlacement) description() string {
	return fmt.Sprintf(
		"pos:tl, off:%.2f %.2f, scale:1 abs, rot:0, fontname:%s, points:%d, fillcolor:#000000, opacity:1",
		p.DX, -p.DY, stampFont, fontPoints(p.FontSize),
	)
}

// pdfcpu takes whole points.
func fontPoints(size float64) int {
	n := int(math.Round(size))
	if n < 1 {
		n = 1
	}
	return n
}
