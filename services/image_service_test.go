package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// halfImage is black on the left half and white on the right.
func halfImage(w, h int) *image.NRGBA {
	img := imaging.New(w, h, color.White)
	for x := 0; x < w/2; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.Black)
		}
	}
	return img
}

func TestProcessedKey(t *testing.T) {
	tests := map[string]string{
		"ladders/x/a.png":  "ladders/x/a_processed.png",
		"ladders/x/a.PNG":  "ladders/x/a_processed.png",
		"ladders/x/b.jpg":  "ladders/x/b_processed.png",
		"ladders/x/c.jpeg": "ladders/x/c_processed.png",
		"ladders/x/d":      "ladders/x/d_processed.png",
	}
	for in, want := range tests {
		assert.Equal(t, want, ProcessedKey(in), in)
	}
}

func TestEnhance(t *testing.T) {
	out := Enhance(halfImage(20, 4), ImageFactors{Contrast: 1.5, Saturation: 0.7})
	require.Equal(t, 40, out.Bounds().Dx())
	require.Equal(t, 8, out.Bounds().Dy())

	left := out.NRGBAAt(1, 4)
	right := out.NRGBAAt(38, 4)
	assert.Greater(t, left.R, uint8(200), "dark text becomes light after inversion")
	assert.Less(t, right.R, uint8(55))
}

func TestSaturate(t *testing.T) {
	red := imaging.New(2, 2, color.NRGBA{R: 200, G: 40, B: 40, A: 255})

	grey := imaging.Clone(saturate(red, 0)).NRGBAAt(0, 0)
	assert.InDelta(t, int(grey.R), int(grey.G), 1)
	assert.InDelta(t, int(grey.G), int(grey.B), 1)

	muted := imaging.Clone(saturate(red, 0.5)).NRGBAAt(0, 0)
	assert.Less(t, int(muted.R)-int(muted.G), 160)
	assert.Greater(t, int(muted.R)-int(muted.G), 0)

	assert.Same(t, red, saturate(red, 1))
}

func TestPreprocess(t *testing.T) {
	storage, mem := newTestStorage()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, halfImage(10, 10), imaging.PNG))
	mem.objects["ladders/20240301-bw/a.png"] = buf.Bytes()

	key, err := NewImageService(storage, ImageFactors{Contrast: 1.5, Saturation: 0.7}).Preprocess(context.Background(), "ladders/20240301-bw/a.png")
	require.NoError(t, err)
	assert.Equal(t, "ladders/20240301-bw/a_processed.png", key)

	data, ok := mem.get(key)
	require.True(t, ok)
	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())
}

func TestProcessImageDataRejectsGarbage(t *testing.T) {
	_, err := ProcessImageData([]byte("not an image"), ImageFactors{Contrast: 1.5})
	require.Error(t, err)
}
