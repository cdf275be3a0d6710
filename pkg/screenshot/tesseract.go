package screenshot

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

const ocrLanguage = "eng"

type tesseractRecognizer struct{}

// newTesseractRecognizer probes the host install before any extraction work:
// a missing backend or missing language pack is a deployment problem and must
// fail loudly rather than produce an all-empty field map.
func newTesseractRecognizer() (*tesseractRecognizer, error) {
	langs, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	for _, l := range langs {
		if l == ocrLanguage {
			return &tesseractRecognizer{}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q not in installed languages %v", ErrLanguageMissing, ocrLanguage, langs)
}

// Recognize runs one Tesseract pass over a single cell crop. A blurry or
// blank cell comes back as empty text, not an error.
func (t *tesseractRecognizer) Recognize(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("encode cell: %w", err)
	}
	client := gosseract.NewClient()
	defer client.Close()
	_ = client.SetLanguage(ocrLanguage)
	_ = client.SetPageSegMode(gosseract.PSM_SINGLE_LINE)
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("set cell image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return text, nil
}
