package screenshot

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
)

// Recognizer turns one cropped cell into text. The production implementation
// wraps Tesseract; tests inject their own so the region table can be
// exercised without an OCR backend on the host.
type Recognizer interface {
	Recognize(img image.Image) (string, error)
}

// Extractor runs the fixed-region OCR pass over one result screenshot.
type Extractor struct {
	rec Recognizer
}

// New builds an Extractor around an arbitrary Recognizer.
func New(rec Recognizer) *Extractor {
	return &Extractor{rec: rec}
}

// NewTesseract builds an Extractor backed by the host Tesseract install,
// verifying up front that the backend and its language data are usable.
func NewTesseract() (*Extractor, error) {
	rec, err := newTesseractRecognizer()
	if err != nil {
		return nil, err
	}
	return New(rec), nil
}

// Extract crops every named region from the screenshot, recognizes each crop
// and returns the field map along with a PNG preview of the normalized image
// with all region outlines drawn, cropped to the playing field. Every region
// name is present as a key; a cell that yields no text maps to "".
func (e *Extractor) Extract(src image.Image) (map[string]string, []byte, error) {
	prepared := normalize(src)
	preview := imaging.Clone(prepared)

	fields := make(map[string]string, len(regionTable))
	for _, reg := range regionTable {
		cell := imaging.Crop(prepared, reg.Rect)
		text, err := e.rec.Recognize(cell)
		if err != nil {
			return nil, nil, fmt.Errorf("recognize %s: %w", reg.Name, err)
		}
		fields[reg.Name] = strings.TrimSpace(text)
		outlineRect(preview, reg.Rect)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Crop(preview, fieldBounds), imaging.PNG); err != nil {
		return nil, nil, fmt.Errorf("encode preview: %w", err)
	}
	return fields, buf.Bytes(), nil
}

// normalize prepares the screenshot for recognition. The result screen is
// light text on a dark backdrop; inverting after the grayscale pass gives the
// OCR engine dark-on-light glyphs, and the contrast boost sharpens them.
func normalize(src image.Image) *image.NRGBA {
	out := imaging.Grayscale(src)
	out = imaging.Invert(out)
	return imaging.AdjustContrast(out, 20)
}

// outlineRect draws a one-pixel rectangle outline, clamped to the image.
func outlineRect(img *image.NRGBA, r image.Rectangle) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	c := color.NRGBA{R: 255, A: 255}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetNRGBA(x, r.Min.Y, c)
		img.SetNRGBA(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetNRGBA(r.Min.X, y, c)
		img.SetNRGBA(r.Max.X-1, y, c)
	}
}
