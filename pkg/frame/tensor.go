package frame

// Tensor is a float32 image tensor in channel-planar (CHW) layout.
// Data[c*Height*Width + y*Width + x] holds channel c of pixel (x, y).
type Tensor struct {
	Channels int
	Height   int
	Width    int
	Data     []float32
}

// NewTensor allocates a zeroed tensor.
func NewTensor(channels, height, width int) Tensor {
	return Tensor{
		Channels: channels,
		Height:   height,
		Width:    width,
		Data:     make([]float32, channels*height*width),
	}
}

// Shape returns the NCHW shape with a batch of one, as detectors expect.
func (t Tensor) Shape() []int {
	return []int{1, t.Channels, t.Height, t.Width}
}

// At returns the value of channel c at (x, y).
func (t Tensor) At(c, y, x int) float32 {
	return t.Data[c*t.Height*t.Width+y*t.Width+x]
}

// Valid reports whether the data length matches the declared shape.
func (t Tensor) Valid() bool {
	return t.Channels > 0 && t.Height > 0 && t.Width > 0 &&
		len(t.Data) == t.Channels*t.Height*t.Width
}
