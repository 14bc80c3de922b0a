// Package frame turns encoded camera frames into detector input tensors.
package frame

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Model input defaults for the Ultra-Light RFB-320 face detector.
const (
	DefaultWidth  = 320
	DefaultHeight = 240
	DefaultMean   = 127
	DefaultStd    = 128
)

// Frame is a preprocessed camera frame ready for inference.
type Frame struct {
	Tensor Tensor

	// Original frame size in pixels, after EXIF orientation is applied.
	// The post-processor denormalizes boxes against these.
	Width  int
	Height int
}

// Preprocessor resizes frames to the model input and normalizes each channel
// with (value - Mean[c]) / Std[c].
type Preprocessor struct {
	Width  int
	Height int
	Mean   [3]float32
	Std    [3]float32

	// Filter used for resizing. The zero value is nearest-neighbour.
	Filter imaging.ResampleFilter
}

// DefaultPreprocessor returns the 320x240, mean 127 / std 128 configuration,
// which maps 8-bit pixels to roughly [-1, 1].
func DefaultPreprocessor() *Preprocessor {
	return &Preprocessor{
		Width:  DefaultWidth,
		Height: DefaultHeight,
		Mean:   [3]float32{DefaultMean, DefaultMean, DefaultMean},
		Std:    [3]float32{DefaultStd, DefaultStd, DefaultStd},
		Filter: imaging.Linear,
	}
}

// Preprocess decodes an encoded image (JPEG, PNG, GIF, BMP, TIFF, WebP) and
// converts it to a normalized tensor.
func (p *Preprocessor) Preprocess(data []byte) (Frame, error) {
	if len(data) == 0 {
		return Frame{}, ErrEmptyInput
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Frame{}, &DecodeError{Err: err}
	}

	if format == "jpeg" {
		img = applyOrientation(img, readOrientation(data))
	}

	return p.fromImage(img)
}

// FromRGB converts a raw, tightly packed RGB buffer (width*height*3 bytes).
func (p *Preprocessor) FromRGB(width, height int, pix []byte) (Frame, error) {
	if len(pix) == 0 {
		return Frame{}, ErrEmptyInput
	}
	if width <= 0 || height <= 0 || len(pix) != width*height*3 {
		return Frame{}, &DecodeError{
			Err: fmt.Errorf("rgb buffer of %d bytes does not match %dx%d", len(pix), width, height),
		}
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i, j := 0, 0; i < len(pix); i, j = i+3, j+4 {
		img.Pix[j] = pix[i]
		img.Pix[j+1] = pix[i+1]
		img.Pix[j+2] = pix[i+2]
		img.Pix[j+3] = 0xff
	}

	return p.fromImage(img)
}

// Neutral returns a tensor equal to the per-channel mean (all zeros after
// normalization). Callers may feed it in place of an undecodable frame.
func (p *Preprocessor) Neutral() Tensor {
	return NewTensor(3, p.Height, p.Width)
}

func (p *Preprocessor) fromImage(img image.Image) (Frame, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return Frame{}, &DecodeError{Err: fmt.Errorf("image has no pixels")}
	}

	if p.Width <= 0 || p.Height <= 0 {
		return Frame{}, fmt.Errorf("frame: invalid target size %dx%d", p.Width, p.Height)
	}

	resized := imaging.Resize(img, p.Width, p.Height, p.Filter)

	return Frame{
		Tensor: p.normalize(resized),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// normalize converts NRGBA pixels into a CHW float tensor.
func (p *Preprocessor) normalize(img *image.NRGBA) Tensor {
	t := NewTensor(3, p.Height, p.Width)
	plane := p.Width * p.Height

	for y := 0; y < p.Height; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+p.Width*4]
		for x := 0; x < p.Width; x++ {
			i := y*p.Width + x
			px := row[x*4 : x*4+3]
			for c := 0; c < 3; c++ {
				t.Data[c*plane+i] = (float32(px[c]) - p.Mean[c]) / p.Std[c]
			}
		}
	}

	return t
}
