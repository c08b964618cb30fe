package qrdecode

import (
	"fmt"
	"image"
	"iter"
	"strconv"
	"sync/atomic"

	"github.com/yndnr/tsqr-go/internal/core/domain"
)

// Stage identifies a step of the fallback chain.
type Stage string

// Pipeline stages in execution order.
const (
	StageOriginal  Stage = "original"
	StageGrayscale Stage = "grayscale"
	StageResize    Stage = "resize"
	StageThreshold Stage = "threshold"
)

// Observer is notified after every detector run.
type Observer func(stage Stage, variant string, found int)

// Options configures a Pipeline.
type Options struct {
	// Scales are the upscale factors tried in stage 3. Each must be > 1.
	Scales []float64

	// MaxVariantPixels skips resized variants larger than this many pixels.
	MaxVariantPixels int

	// MaxSourcePixels rejects uploads larger than this many pixels.
	MaxSourcePixels int

	// ThresholdBlock is the odd neighbourhood size of the adaptive threshold.
	ThresholdBlock int

	// ThresholdC is subtracted from the local mean before comparison.
	ThresholdC float64
}

// DefaultOptions returns the default pipeline options.
func DefaultOptions() Options {
	return Options{
		Scales:           []float64{1.5, 2.0, 3.0},
		MaxVariantPixels: 40_000_000,
		MaxSourcePixels:  40_000_000,
		ThresholdBlock:   31,
		ThresholdC:       2,
	}
}

// Option is a function that configures the Pipeline.
type Option func(*Pipeline)

// WithOptions replaces the pipeline options.
func WithOptions(o Options) Option {
	return func(p *Pipeline) { p.opts = o }
}

// WithDetectorFactory overrides the QR detector.
func WithDetectorFactory(f DetectorFactory) Option {
	return func(p *Pipeline) { p.factory = f }
}

// WithObserver attaches a stage observer.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// Pipeline runs the decode fallback chain. It is stateless after
// construction and safe for concurrent use.
type Pipeline struct {
	opts     Options
	factory  DetectorFactory
	detector Detector
	observer Observer
}

// New creates a Pipeline. It fails with domain.ErrDecoderUnavailable when the
// detector cannot be constructed.
func New(opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		opts:    DefaultOptions(),
		factory: NewZXingDetector,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.factory == nil {
		return nil, domain.ErrDecoderUnavailable.WithDetails("no detector configured")
	}
	d, err := p.factory()
	if err != nil {
		return nil, domain.ErrDecoderUnavailable.WithCause(err)
	}
	if d == nil {
		return nil, domain.ErrDecoderUnavailable.WithDetails("detector factory returned nil")
	}
	p.detector = d
	return p, nil
}

// Candidates decodes raster bytes and returns the lazy candidate sequence.
// Undecodable bytes fail with domain.ErrInvalidImage; an image without a
// readable code yields an empty sequence.
func (p *Pipeline) Candidates(data []byte) (iter.Seq[string], error) {
	img, err := decodeRGB(data, p.opts.MaxSourcePixels)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithCause(err)
	}
	return p.Scan(img), nil
}

// DecodeCandidates collects every candidate from data.
func (p *Pipeline) DecodeCandidates(data []byte) ([]string, error) {
	seq, err := p.Candidates(data)
	if err != nil {
		return nil, err
	}
	out := []string{}
	for text := range seq {
		out = append(out, text)
	}
	return out, nil
}

// Scan runs the fallback chain over an already decoded image. The returned
// sequence can be ranged over once; later ranges yield nothing.
func (p *Pipeline) Scan(img image.Image) iter.Seq[string] {
	var used atomic.Bool
	return func(yield func(string) bool) {
		if !used.CompareAndSwap(false, true) {
			return
		}
		p.scan(img, yield)
	}
}

func (p *Pipeline) scan(color image.Image, yield func(string) bool) {
	seen := make(map[string]struct{})
	// emit yields unseen texts and reports whether the consumer wants more.
	emit := func(texts []string) bool {
		for _, t := range texts {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			if !yield(t) {
				return false
			}
		}
		return true
	}

	// Stages 1-2 short-circuit on the first hit.
	if texts := p.detect(StageOriginal, "color", color); len(texts) > 0 {
		emit(texts)
		return
	}

	gray := safeTransform(func() *image.Gray { return grayscale(color) })
	if gray != nil {
		if texts := p.detect(StageGrayscale, "gray", gray); len(texts) > 0 {
			emit(texts)
			return
		}
	}

	// Stages 3-4 are exhaustive; results are merged.
	for _, v := range p.variants(color, gray) {
		img := v.build()
		if img == nil {
			continue
		}
		if !emit(p.detect(v.stage, v.name, img)) {
			return
		}
	}
}

type variant struct {
	stage Stage
	name  string
	build func() image.Image
}

// variants lists the stage 3-4 images in order. Each is built on demand so
// at most one large variant is alive at a time.
func (p *Pipeline) variants(color image.Image, gray *image.Gray) []variant {
	var out []variant
	b := color.Bounds()

	for _, scale := range p.opts.Scales {
		if scale <= 1 {
			continue
		}
		w := int(float64(b.Dx()) * scale)
		h := int(float64(b.Dy()) * scale)
		if p.opts.MaxVariantPixels > 0 && w*h > p.opts.MaxVariantPixels {
			continue
		}
		label := strconv.FormatFloat(scale, 'f', -1, 64) + "x"
		out = append(out, variant{
			stage: StageResize,
			name:  "color@" + label,
			build: func() image.Image {
				return safeTransform(func() image.Image { return resize(color, scale) })
			},
		})
		if gray != nil {
			out = append(out, variant{
				stage: StageResize,
				name:  "gray@" + label,
				build: func() image.Image {
					return safeTransform(func() image.Image { return resize(gray, scale) })
				},
			})
		}
	}

	if gray != nil {
		block, c := p.opts.ThresholdBlock, p.opts.ThresholdC
		out = append(out, variant{
			stage: StageThreshold,
			name:  fmt.Sprintf("gaussian-%d-%g", block, c),
			build: func() image.Image {
				return safeTransform(func() image.Image { return adaptiveThreshold(gray, block, c) })
			},
		})
	}
	return out
}

// detect runs the detector on one variant. Errors and panics count as
// nothing found.
func (p *Pipeline) detect(stage Stage, name string, img image.Image) (texts []string) {
	defer func() {
		if r := recover(); r != nil {
			texts = nil
		}
		if p.observer != nil {
			p.observer(stage, name, len(texts))
		}
	}()

	found, err := p.detector.Detect(img)
	if err != nil {
		return nil
	}
	return normalize(found)
}

// safeTransform runs fn and returns the zero value if it panics.
func safeTransform[T any](fn func() T) (out T) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			out = zero
		}
	}()
	return fn()
}
