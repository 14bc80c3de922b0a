// Package onnx runs an Ultra-Light face detector through OpenCV's DNN module.
package onnx

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-peekguard/pkg/detection"
	"github.com/teslashibe/go-peekguard/pkg/frame"
)

// Output layer names of the RFB-320 / slim-320 exports.
const (
	scoresLayer = "scores"
	boxesLayer  = "boxes"
	inputLayer  = "input"
)

// Detector implements detection.Detector on top of gocv.Net.
type Detector struct {
	net    gocv.Net
	config detection.Config
	logger *slog.Logger
	mu     sync.Mutex
	closed bool
}

// New loads the ONNX model named in cfg.
func New(cfg detection.Config, logger *slog.Logger) (*Detector, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// Check if model file exists
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load face model from %s", cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	logger.Info("face detector loaded", "model", cfg.ModelPath,
		"input", fmt.Sprintf("%dx%d", cfg.InputWidth, cfg.InputHeight))

	return &Detector{net: net, config: cfg, logger: logger}, nil
}

// Detect runs one forward pass. The tensor must match the configured input size.
func (d *Detector) Detect(ctx context.Context, t frame.Tensor) (detection.RawOutput, error) {
	if err := ctx.Err(); err != nil {
		return detection.RawOutput{}, err
	}
	if !t.Valid() {
		return detection.RawOutput{}, fmt.Errorf("%w: invalid input tensor", detection.ErrInference)
	}
	if t.Width != d.config.InputWidth || t.Height != d.config.InputHeight {
		return detection.RawOutput{}, fmt.Errorf("%w: input %dx%d, model wants %dx%d",
			detection.ErrInference, t.Width, t.Height, d.config.InputWidth, d.config.InputHeight)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || d.net.Empty() {
		return detection.RawOutput{}, detection.ErrInference
	}

	blob, err := gocv.NewMatWithSizesFromBytes(t.Shape(), gocv.MatTypeCV32F, tensorBytes(t.Data))
	if err != nil {
		return detection.RawOutput{}, fmt.Errorf("%w: build blob: %v", detection.ErrInference, err)
	}
	defer blob.Close()

	d.net.SetInput(blob, inputLayer)

	outputs := d.net.ForwardLayers([]string{scoresLayer, boxesLayer})
	defer func() {
		for i := range outputs {
			outputs[i].Close()
		}
	}()
	if len(outputs) != 2 {
		return detection.RawOutput{}, fmt.Errorf("%w: expected 2 outputs, got %d", detection.ErrInference, len(outputs))
	}

	// Mats are closed on return, so copy out of their buffers.
	scores, err := copyFloats(outputs[0])
	if err != nil {
		return detection.RawOutput{}, err
	}
	boxes, err := copyFloats(outputs[1])
	if err != nil {
		return detection.RawOutput{}, err
	}

	return parseUltraLight(scores, boxes), nil
}

// Close releases the network. Further Detect calls return ErrInference.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.net.Close()
}

func copyFloats(m gocv.Mat) ([]float32, error) {
	data, err := m.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("%w: read output: %v", detection.ErrInference, err)
	}
	out := make([]float32, len(data))
	copy(out, data)
	return out, nil
}

// parseUltraLight reduces the model outputs to one face score per box.
// Scores are [1, N, 2] (background, face) and boxes [1, N, 4].
func parseUltraLight(scores, boxes []float32) detection.RawOutput {
	n := len(boxes) / 4
	out := detection.RawOutput{Boxes: boxes[:n*4]}

	switch len(scores) {
	case 2 * n:
		out.Scores = make([]float32, n)
		for i := 0; i < n; i++ {
			out.Scores[i] = scores[2*i+1]
		}
	default:
		out.Scores = scores
	}
	return out
}

func tensorBytes(data []float32) []byte {
	buf := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}
