package screenshot

import "errors"

// Deployment problems, not image-quality problems. Callers must surface these
// to the operator instead of treating the extraction as a blank screenshot.
var (
	ErrBackendUnavailable = errors.New("ocr backend unavailable")
	ErrLanguageMissing    = errors.New("ocr language data missing")
)
