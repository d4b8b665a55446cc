package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"time"

	"github.com/go-pdf/fpdf"
)

// LogoFetcher returns raw PNG or JPEG bytes for a logo URL.
type LogoFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type Options struct {
	CompanyName    string
	DefaultLogoURL string
	Compress       bool
	RowsPerPage    int
}

type Renderer struct {
	logos LogoFetcher
	opts  Options
}

func NewRenderer(logos LogoFetcher, opts Options) *Renderer {
	if opts.CompanyName == "" {
		opts.CompanyName = "Double Helix LLC"
	}
	if opts.RowsPerPage <= 0 {
		opts.RowsPerPage = reportGeometry.RowsPerPage
	}
	return &Renderer{logos: logos, opts: opts}
}

// pdfDoc wraps fpdf with the helpers shared by the certificate and report layouts.
type pdfDoc struct {
	*fpdf.Fpdf
	tr func(string) string
}

func newDoc(orientation string, stamp time.Time, compress bool) *pdfDoc {
	f := fpdf.New(orientation, "pt", "Letter", "")
	f.SetMargins(0, 0, 0)
	f.SetAutoPageBreak(false, 0)
	f.SetCompression(compress)
	f.SetCatalogSort(true)
	// 同一入力から同一バイト列を得るため日時は呼び出し側から渡す
	f.SetCreationDate(stamp)
	f.SetModificationDate(stamp)
	return &pdfDoc{Fpdf: f, tr: f.UnicodeTranslatorFromDescriptor("")}
}

func (d *pdfDoc) style(s textStyle) {
	d.SetFont(s.Font.Family, s.Font.Style, s.Font.Size)
	d.SetTextColor(s.Color.R, s.Color.G, s.Color.B)
}

func (d *pdfDoc) text(x, y float64, s textStyle, str string) {
	d.style(s)
	d.Text(x, y, d.tr(str))
}

func (d *pdfDoc) centered(pageW, y float64, s textStyle, str string) {
	d.style(s)
	t := d.tr(str)
	d.Text((pageW-d.GetStringWidth(t))/2, y, t)
}

func (d *pdfDoc) line(x1, y1, x2, y2, width float64, c rgb) {
	d.SetDrawColor(c.R, c.G, c.B)
	d.SetLineWidth(width)
	d.Line(x1, y1, x2, y2)
}

func (d *pdfDoc) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

type logoImage struct {
	name          string
	width, height float64
}

// loadLogo fetches and registers the logo. Any failure yields ok=false and
// leaves the document usable.
func (r *Renderer) loadLogo(ctx context.Context, d *pdfDoc, url string) (logoImage, bool) {
	if url == "" {
		url = r.opts.DefaultLogoURL
	}
	if url == "" || r.logos == nil {
		return logoImage{}, false
	}

	raw, err := r.logos.Fetch(ctx, url)
	if err != nil {
		log.Printf("[WARN] logo omitted: %v", err)
		return logoImage{}, false
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		log.Printf("[WARN] logo omitted: undecodable image from %s", url)
		return logoImage{}, false
	}
	imgType := map[string]string{"png": "PNG", "jpeg": "JPG"}[format]
	if imgType == "" {
		log.Printf("[WARN] logo omitted: unsupported format %q from %s", format, url)
		return logoImage{}, false
	}

	opt := fpdf.ImageOptions{ImageType: imgType}
	d.RegisterImageOptionsReader("logo", opt, bytes.NewReader(raw))
	if d.Err() {
		// interlaced / 16bit PNG など fpdf が扱えない画像
		log.Printf("[WARN] logo omitted: %v", d.Error())
		d.ClearError()
		return logoImage{}, false
	}
	return logoImage{name: "logo", width: float64(cfg.Width), height: float64(cfg.Height)}, true
}

// fit scales w×h to fit inside a box×box square.
func fit(w, h, box float64) (float64, float64) {
	if w >= h {
		return box, h * box / w
	}
	return w * box / h, box
}

func (d *pdfDoc) image(img logoImage, x, y, w, h float64) {
	d.ImageOptions(img.name, x, y, w, h, false, fpdf.ImageOptions{}, 0, "")
}
