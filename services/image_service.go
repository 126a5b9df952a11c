package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

const (
	thresholdLevel  = 128
	autocontrastLow = 0.60
	upscaleFactor   = 2
)

// ImageFactors scale the enhancement steps. 1 leaves an image unchanged.
type ImageFactors struct {
	Contrast   float64
	Saturation float64
}

// ImageService prepares screenshots for OCR.
type ImageService struct {
	Storage *S3Service
	Factors ImageFactors
}

func NewImageService(storage *S3Service, factors ImageFactors) *ImageService {
	return &ImageService{Storage: storage, Factors: factors}
}

// Preprocess enhances the screenshot at key and stores it next to the original,
// returning the key of the processed image.
func (is *ImageService) Preprocess(ctx context.Context, key string) (string, error) {
	data, err := is.Storage.Get(ctx, key)
	if err != nil {
		return "", err
	}
	out, err := ProcessImageData(data, is.Factors)
	if err != nil {
		return "", fmt.Errorf("failed to process %s: %w", key, err)
	}
	processed := ProcessedKey(key)
	if err := is.Storage.Put(ctx, processed, out, "image/png"); err != nil {
		return "", err
	}
	is.Storage.Logger.Info("preprocessed image", zap.String("key", key), zap.String("processed", processed))
	return processed, nil
}

// ProcessImageData decodes an image, enhances it and encodes it as PNG.
func ProcessImageData(data []byte, factors ImageFactors) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, Enhance(img, factors), imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Enhance turns a screenshot into large, sharp, dark text on a light background.
func Enhance(img image.Image, factors ImageFactors) *image.NRGBA {
	out := imaging.Grayscale(saturate(img, factors.Saturation))
	out = imaging.AdjustFunc(out, func(c color.NRGBA) color.NRGBA {
		v := uint8(0)
		if c.R > thresholdLevel {
			v = 255
		}
		return color.NRGBA{R: v, G: v, B: v, A: c.A}
	})
	out = autocontrast(out, autocontrastLow)
	if factors.Contrast > 0 && factors.Contrast != 1 {
		out = imaging.AdjustContrast(out, (factors.Contrast-1)*100)
	}

	b := out.Bounds()
	out = imaging.Resize(out, b.Dx()*upscaleFactor, b.Dy()*upscaleFactor, imaging.Lanczos)
	out = imaging.Sharpen(out, 1)
	return imaging.Invert(out)
}

// saturate scales colour saturation by factor, so 0 gives grey and 2 doubles it.
func saturate(img image.Image, factor float64) image.Image {
	if factor < 0 || factor == 1 {
		return img
	}
	return imaging.AdjustSaturation(img, math.Min((factor-1)*100, 100))
}

// autocontrast stretches grey levels so the darkest cutoff fraction maps to black
// and the brightest level to white.
func autocontrast(img *image.NRGBA, cutoff float64) *image.NRGBA {
	hist := imaging.Histogram(img)

	lo, total := 0, 0.0
	for i, v := range hist {
		total += v
		if total > cutoff {
			lo = i
			break
		}
	}
	hi := 255
	for hi > 0 && hist[hi] == 0 {
		hi--
	}
	if hi <= lo {
		return img
	}

	scale := 255.0 / float64(hi-lo)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		stretch := func(v uint8) uint8 {
			switch {
			case int(v) <= lo:
				return 0
			case int(v) >= hi:
				return 255
			}
			return uint8(float64(int(v)-lo) * scale)
		}
		return color.NRGBA{R: stretch(c.R), G: stretch(c.G), B: stretch(c.B), A: c.A}
	})
}

// ProcessedKey names the processed copy of a screenshot.
func ProcessedKey(key string) string {
	lower := strings.ToLower(key)
	switch {
	case strings.HasSuffix(lower, ".png"):
		return key[:len(key)-len(".png")] + "_processed.png"
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return key[:strings.LastIndex(key, ".")] + "_processed.png"
	}
	return key + "_processed.png"
}
