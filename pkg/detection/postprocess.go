package detection

import (
	"sort"

	"github.com/teslashibe/go-peekguard/pkg/geometry"
)

// OwnerMatcher decides whether a face belongs to the device owner.
// Nil means no face is ever treated as the owner.
type OwnerMatcher func(f Face) bool

// PostProcessor converts raw detector output into a Result.
type PostProcessor struct {
	ConfidenceThreshold float64 // Scores at or below are discarded
	IOUThreshold        float64 // NMS suppresses overlaps strictly above this
	PeekingDistance     float64 // A lone face further than this from center counts as peeking
	Owner               OwnerMatcher
}

// NewPostProcessor builds a PostProcessor from detector config.
func NewPostProcessor(cfg Config) *PostProcessor {
	return &PostProcessor{
		ConfidenceThreshold: cfg.ConfidenceThresh,
		IOUThreshold:        cfg.IOUThresh,
		PeekingDistance:     cfg.PeekingDistance,
	}
}

// Process filters, suppresses and describes the faces in raw for a frame
// of frameW x frameH pixels. It never fails: no usable rows yields Empty().
func (p *PostProcessor) Process(raw RawOutput, frameW, frameH int) Result {
	if frameW <= 0 || frameH <= 0 {
		return Empty()
	}
	w, h := float64(frameW), float64(frameH)

	candidates := p.candidates(raw, w, h)
	if len(candidates) == 0 {
		return Empty()
	}

	kept := NMS(candidates, p.IOUThreshold)

	faces := make([]Face, 0, len(kept))
	for _, fb := range kept {
		faces = append(faces, p.describe(fb, w, h))
	}

	return Result{
		FaceCount:       len(faces),
		Faces:           faces,
		PeekingDetected: p.peeking(faces),
	}
}

// candidates applies the confidence filter and denormalizes survivors to pixels.
func (p *PostProcessor) candidates(raw RawOutput, w, h float64) []FaceBox {
	n := raw.Len()
	out := make([]FaceBox, 0, n)
	for i := 0; i < n; i++ {
		d := raw.At(i)
		if d.Confidence <= p.ConfidenceThreshold {
			continue
		}
		out = append(out, FaceBox{
			Box:        geometry.FromCorners(d.X1*w, d.Y1*h, d.X2*w, d.Y2*h),
			Confidence: d.Confidence,
		})
	}
	return out
}

func (p *PostProcessor) describe(fb FaceBox, w, h float64) Face {
	cx, cy := fb.Center()
	f := Face{
		X:               fb.X / w,
		Y:               fb.Y / h,
		Width:           fb.Width / w,
		Height:          fb.Height / h,
		AngleFromCenter: geometry.AngleDegrees(cx-w/2, cy-h/2),
	}
	if p.Owner != nil {
		f.IsOwner = p.Owner(f)
	}
	return f
}

func (p *PostProcessor) peeking(faces []Face) bool {
	switch len(faces) {
	case 0:
		return false
	case 1:
		cx, cy := faces[0].Center()
		return geometry.Distance(cx, cy, 0.5, 0.5) > p.PeekingDistance
	default:
		return true
	}
}

// NMS performs greedy non-maximum suppression. Boxes are visited in
// descending confidence (ties keep input order); any remaining box whose
// IOU with a kept box exceeds threshold is dropped. The input is not modified.
func NMS(boxes []FaceBox, threshold float64) []FaceBox {
	sorted := make([]FaceBox, len(boxes))
	copy(sorted, boxes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	suppressed := make([]bool, len(sorted))
	kept := make([]FaceBox, 0, len(sorted))
	for i := range sorted {
		if suppressed[i] {
			continue
		}
		kept = append(kept, sorted[i])
		for j := i + 1; j < len(sorted); j++ {
			if !suppressed[j] && geometry.IOU(sorted[i].Box, sorted[j].Box) > threshold {
				suppressed[j] = true
			}
		}
	}
	return kept
}
