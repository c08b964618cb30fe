package qrdecode

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	// Registered raster formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// decodeRGB decodes raster bytes and flattens them onto an opaque white
// canvas. Images above maxPixels are rejected before full decoding.
func decodeRGB(data []byte, maxPixels int) (*image.NRGBA, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("empty image %dx%d", cfg.Width, cfg.Height)
	}
	if maxPixels > 0 && cfg.Width*cfg.Height > maxPixels {
		return nil, fmt.Errorf("image %dx%d exceeds %d pixels", cfg.Width, cfg.Height, maxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return flatten(img), nil
}

// flatten composites img over white so transparent regions read as paper.
func flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}

// grayscale converts to 8-bit luminance (ITU-R BT.601 weights).
func grayscale(img image.Image) *image.Gray {
	return toGray(imaging.Grayscale(img))
}

// resize scales img by factor with bicubic (Catmull-Rom) interpolation.
func resize(img image.Image, factor float64) image.Image {
	b := img.Bounds()
	w := int(float64(b.Dx()) * factor)
	h := int(float64(b.Dy()) * factor)
	out := imaging.Resize(img, w, h, imaging.CatmullRom)
	if _, ok := img.(*image.Gray); ok {
		return toGray(out)
	}
	return out
}

// adaptiveThreshold binarizes gray against a gaussian-weighted local mean:
// a pixel becomes white when it is brighter than mean-c over a block x block
// neighbourhood, black otherwise.
func adaptiveThreshold(gray *image.Gray, block int, c float64) *image.Gray {
	b := gray.Bounds()
	blurred := imaging.Blur(gray, gaussianSigma(block))

	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := float64(gray.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			mean := float64(blurred.Pix[y*blurred.Stride+x*4])
			if v > mean-c {
				out.Pix[y*out.Stride+x] = 0xff
			}
		}
	}
	return out
}

// gaussianSigma derives sigma from a kernel size the way OpenCV does for
// sigma=0, so a 31 pixel block gives sigma 5.
func gaussianSigma(block int) float64 {
	return 0.3*(float64(block-1)*0.5-1) + 0.8
}

func toGray(img *image.NRGBA) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := img.Pix[y*img.Stride:]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < b.Dx(); x++ {
			dst[x] = src[x*4]
		}
	}
	return out
}
