package qrdecode

import (
	"image"
	"strings"

	"github.com/makiuchi-d/gozxing"
	multiqr "github.com/makiuchi-d/gozxing/multi/qrcode"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// Detector finds and decodes QR codes in one image.
type Detector interface {
	Detect(img image.Image) ([]string, error)
}

// DetectorFunc adapts a function to Detector.
type DetectorFunc func(img image.Image) ([]string, error)

// Detect implements Detector.
func (f DetectorFunc) Detect(img image.Image) ([]string, error) { return f(img) }

// DetectorFactory constructs a Detector. A factory error means decoding is
// unavailable in this environment.
type DetectorFactory func() (Detector, error)

// NewZXingDetector returns a detector backed by gozxing.
func NewZXingDetector() (Detector, error) {
	return &zxingDetector{
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}, nil
}

type zxingDetector struct {
	hints map[gozxing.DecodeHintType]interface{}
}

// Detect runs the multi-code reader and then the single-code reader over the
// same binarized bitmap. Readers are created per call; they keep internal
// state and are not safe to share.
func (d *zxingDetector) Detect(img image.Image) ([]string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, err
	}

	var out []string
	if results, err := multiqr.NewQRCodeMultiReader().DecodeMultiple(bmp, d.hints); err == nil {
		for _, r := range results {
			out = append(out, r.GetText())
		}
	}
	if r, err := qrcode.NewQRCodeReader().Decode(bmp, d.hints); err == nil {
		out = append(out, r.GetText())
	}
	return normalize(out), nil
}

// normalize trims texts, drops empties and removes duplicates, keeping order.
func normalize(texts []string) []string {
	out := make([]string, 0, len(texts))
	seen := make(map[string]struct{}, len(texts))
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
