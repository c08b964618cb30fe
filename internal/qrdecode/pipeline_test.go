package qrdecode

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"slices"
	"sync"
	"testing"

	goqrcode "github.com/skip2/go-qrcode"

	"github.com/yndnr/tsqr-go/internal/core/domain"
)

// gradient returns an image with mid-gray values so that only the
// threshold stage produces a strictly binary picture.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(64 + (x*127)/w)
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 0xff})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func isBinary(img image.Image) bool {
	g, ok := img.(*image.Gray)
	if !ok {
		return false
	}
	for _, v := range g.Pix {
		if v != 0 && v != 0xff {
			return false
		}
	}
	return true
}

type call struct {
	stage   Stage
	variant string
	found   int
}

type recorder struct {
	mu    sync.Mutex
	calls []call
}

func (r *recorder) observe(stage Stage, variant string, found int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{stage, variant, found})
}

func (r *recorder) stages() []Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Stage, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, c.stage)
	}
	return out
}

func newTestPipeline(t *testing.T, d DetectorFunc, rec *recorder, opts ...Option) *Pipeline {
	t.Helper()
	all := []Option{WithDetectorFactory(func() (Detector, error) { return d, nil })}
	if rec != nil {
		all = append(all, WithObserver(rec.observe))
	}
	p, err := New(append(all, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func collect(seq func(func(string) bool)) []string {
	var out []string
	for s := range seq {
		out = append(out, s)
	}
	return out
}

func TestPipeline_StageOrder(t *testing.T) {
	src := gradient(40, 30)

	tests := []struct {
		name       string
		detect     DetectorFunc
		wantTexts  []string
		wantStages []Stage
	}{
		{
			name: "original hit stops the chain",
			detect: func(img image.Image) ([]string, error) {
				return []string{"A"}, nil
			},
			wantTexts:  []string{"A"},
			wantStages: []Stage{StageOriginal},
		},
		{
			name: "grayscale hit stops the chain",
			detect: func(img image.Image) ([]string, error) {
				if _, ok := img.(*image.Gray); ok {
					return []string{"G"}, nil
				}
				return nil, nil
			},
			wantTexts:  []string{"G"},
			wantStages: []Stage{StageOriginal, StageGrayscale},
		},
		{
			name: "resize hits are merged and deduplicated",
			detect: func(img image.Image) ([]string, error) {
				if img.Bounds().Dx() > 40 {
					return []string{"R", " R "}, nil
				}
				return nil, nil
			},
			wantTexts: []string{"R"},
			wantStages: []Stage{
				StageOriginal, StageGrayscale,
				StageResize, StageResize, StageResize, StageResize, StageResize, StageResize,
				StageThreshold,
			},
		},
		{
			name: "only the threshold variant decodes",
			detect: func(img image.Image) ([]string, error) {
				if isBinary(img) {
					return []string{"T"}, nil
				}
				return nil, nil
			},
			wantTexts: []string{"T"},
			wantStages: []Stage{
				StageOriginal, StageGrayscale,
				StageResize, StageResize, StageResize, StageResize, StageResize, StageResize,
				StageThreshold,
			},
		},
		{
			name: "nothing found runs every stage",
			detect: func(img image.Image) ([]string, error) {
				return nil, nil
			},
			wantTexts: nil,
			wantStages: []Stage{
				StageOriginal, StageGrayscale,
				StageResize, StageResize, StageResize, StageResize, StageResize, StageResize,
				StageThreshold,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			p := newTestPipeline(t, tt.detect, rec)

			got := collect(p.Scan(src))
			if !slices.Equal(got, tt.wantTexts) {
				t.Errorf("texts = %q, want %q", got, tt.wantTexts)
			}
			if stages := rec.stages(); !slices.Equal(stages, tt.wantStages) {
				t.Errorf("stages = %v, want %v", stages, tt.wantStages)
			}
		})
	}
}

func TestPipeline_MergesDistinctTexts(t *testing.T) {
	p := newTestPipeline(t, func(img image.Image) ([]string, error) {
		if isBinary(img) {
			return []string{"B", "A"}, nil
		}
		if img.Bounds().Dx() > 40 {
			return []string{"A"}, nil
		}
		return nil, nil
	}, nil)

	got := collect(p.Scan(gradient(40, 30)))
	want := []string{"A", "B"}
	if !slices.Equal(got, want) {
		t.Errorf("texts = %q, want %q", got, want)
	}
}

func TestPipeline_MaxVariantPixels(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxVariantPixels = 40 * 30 * 3 // only the 1.5x variants fit

	rec := &recorder{}
	p := newTestPipeline(t, func(image.Image) ([]string, error) { return nil, nil }, rec, WithOptions(opts))
	collect(p.Scan(gradient(40, 30)))

	var resized []string
	for _, c := range rec.calls {
		if c.stage == StageResize {
			resized = append(resized, c.variant)
		}
	}
	want := []string{"color@1.5x", "gray@1.5x"}
	if !slices.Equal(resized, want) {
		t.Errorf("resized variants = %v, want %v", resized, want)
	}
}

func TestPipeline_NotRestartable(t *testing.T) {
	p := newTestPipeline(t, func(image.Image) ([]string, error) { return []string{"X"}, nil }, nil)
	seq := p.Scan(gradient(10, 10))

	if got := collect(seq); len(got) != 1 {
		t.Fatalf("first range = %q, want one text", got)
	}
	if got := collect(seq); len(got) != 0 {
		t.Errorf("second range = %q, want nothing", got)
	}
}

func TestPipeline_EarlyBreak(t *testing.T) {
	rec := &recorder{}
	p := newTestPipeline(t, func(img image.Image) ([]string, error) {
		if img.Bounds().Dx() > 40 {
			return []string{"first"}, nil
		}
		return nil, nil
	}, rec)

	for text := range p.Scan(gradient(40, 30)) {
		if text != "first" {
			t.Fatalf("text = %q", text)
		}
		break
	}
	// original, grayscale, first resize variant
	if n := len(rec.calls); n != 3 {
		t.Errorf("detector calls = %d, want 3", n)
	}
}

func TestPipeline_DetectorFailuresAreSwallowed(t *testing.T) {
	tests := []struct {
		name   string
		detect DetectorFunc
	}{
		{"error", func(image.Image) ([]string, error) { return []string{"ignored"}, errors.New("boom") }},
		{"panic", func(image.Image) ([]string, error) { panic("detector crashed") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			p := newTestPipeline(t, tt.detect, rec)
			if got := collect(p.Scan(gradient(20, 20))); len(got) != 0 {
				t.Errorf("texts = %q, want none", got)
			}
			if len(rec.calls) != 9 {
				t.Errorf("detector calls = %d, want 9", len(rec.calls))
			}
		})
	}
}

func TestNew_DetectorUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		factory DetectorFactory
	}{
		{"factory error", func() (Detector, error) { return nil, errors.New("no native library") }},
		{"nil detector", func() (Detector, error) { return nil, nil }},
		{"nil factory", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(WithDetectorFactory(tt.factory))
			if !errors.Is(err, domain.ErrDecoderUnavailable) {
				t.Errorf("New() error = %v, want ErrDecoderUnavailable", err)
			}
		})
	}
}

func TestCandidates_InvalidImage(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("definitely not an image")},
		{"truncated png", encodePNG(t, gradient(8, 8))[:40]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Candidates(tt.data)
			if !errors.Is(err, domain.ErrInvalidImage) {
				t.Errorf("Candidates() error = %v, want ErrInvalidImage", err)
			}
		})
	}
}

func TestCandidates_SourceTooLarge(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxSourcePixels = 100

	p, err := New(WithOptions(opts))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := p.Candidates(encodePNG(t, gradient(20, 20))); !errors.Is(err, domain.ErrInvalidImage) {
		t.Errorf("Candidates() error = %v, want ErrInvalidImage", err)
	}
}

func TestDecodeCandidates_BlankImage(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	blank := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for i := range blank.Pix {
		blank.Pix[i] = 0xff
	}

	got, err := p.DecodeCandidates(encodePNG(t, blank))
	if err != nil {
		t.Fatalf("DecodeCandidates() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("DecodeCandidates() = %q, want none", got)
	}
}

func TestDecodeCandidates_RealCode(t *testing.T) {
	const content = "TSQR1.eyJ0ZW5hbnRfaWQiOiJ0MSJ9.c2ln"

	data, err := goqrcode.Encode(content, goqrcode.Medium, 256)
	if err != nil {
		t.Fatalf("qrcode.Encode: %v", err)
	}

	p, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	got, err := p.DecodeCandidates(data)
	if err != nil {
		t.Fatalf("DecodeCandidates() error = %v", err)
	}
	if !slices.Contains(got, content) {
		t.Errorf("DecodeCandidates() = %q, want %q", got, content)
	}
}

func TestDecodeCandidates_TransparentBackground(t *testing.T) {
	const content = "transparent"

	q, err := goqrcode.New(content, goqrcode.Medium)
	if err != nil {
		t.Fatalf("qrcode.New: %v", err)
	}
	q.BackgroundColor = color.Transparent
	data, err := q.PNG(256)
	if err != nil {
		t.Fatalf("PNG: %v", err)
	}

	p, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	got, err := p.DecodeCandidates(data)
	if err != nil {
		t.Fatalf("DecodeCandidates() error = %v", err)
	}
	if !slices.Contains(got, content) {
		t.Errorf("DecodeCandidates() = %q, want %q", got, content)
	}
}

func BenchmarkPipeline_RealCode(b *testing.B) {
	data, err := goqrcode.Encode("TSQR1.bench.payload", goqrcode.Medium, 256)
	if err != nil {
		b.Fatal(err)
	}
	p, err := New()
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.DecodeCandidates(data); err != nil {
			b.Fatal(err)
		}
	}
}
