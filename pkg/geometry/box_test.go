package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBox_Center(t *testing.T) {
	tests := []struct {
		name  string
		box   Box
		wantX float64
		wantY float64
	}{
		{name: "unit box", box: Box{X: 0, Y: 0, Width: 1, Height: 1}, wantX: 0.5, wantY: 0.5},
		{name: "pixel box", box: FromCorners(10, 20, 50, 60), wantX: 30, wantY: 40},
		{name: "offset box", box: Box{X: 0.8, Y: 0.4, Width: 0.2, Height: 0.2}, wantX: 0.9, wantY: 0.5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			x, y := tc.box.Center()
			assert.InDelta(t, tc.wantX, x, 1e-9)
			assert.InDelta(t, tc.wantY, y, 1e-9)
		})
	}
}

func TestBox_Area(t *testing.T) {
	assert.InDelta(t, 1600.0, FromCorners(10, 10, 50, 50).Area(), 1e-9)
	assert.Zero(t, Box{Width: 0, Height: 10}.Area())
	assert.Zero(t, FromCorners(5, 5, 1, 1).Area(), "inverted corners are degenerate")
}

func TestBox_Scale(t *testing.T) {
	b := Box{X: 0.1, Y: 0.2, Width: 0.5, Height: 0.25}.Scale(640, 480)
	assert.InDelta(t, 64.0, b.X, 1e-9)
	assert.InDelta(t, 96.0, b.Y, 1e-9)
	assert.InDelta(t, 320.0, b.Width, 1e-9)
	assert.InDelta(t, 120.0, b.Height, 1e-9)
}

func TestIOU(t *testing.T) {
	tests := []struct {
		name string
		a, b Box
		want float64
	}{
		{
			name: "identical",
			a:    FromCorners(10, 10, 50, 50),
			b:    FromCorners(10, 10, 50, 50),
			want: 1.0,
		},
		{
			name: "disjoint",
			a:    FromCorners(0, 0, 10, 10),
			b:    FromCorners(20, 20, 30, 30),
			want: 0,
		},
		{
			name: "touching edges",
			a:    FromCorners(0, 0, 10, 10),
			b:    FromCorners(10, 0, 20, 10),
			want: 0,
		},
		{
			name: "half overlap",
			a:    FromCorners(0, 0, 10, 10),
			b:    FromCorners(5, 0, 15, 10),
			want: 50.0 / 150.0,
		},
		{
			name: "nearly coincident faces",
			a:    FromCorners(10, 10, 50, 50),
			b:    FromCorners(12, 12, 52, 52),
			want: 1444.0 / 1756.0,
		},
		{
			name: "zero union",
			a:    Box{},
			b:    Box{},
			want: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, IOU(tc.a, tc.b), 1e-9)
		})
	}
}

func TestIOU_Symmetric(t *testing.T) {
	boxes := []Box{
		FromCorners(0, 0, 10, 10),
		FromCorners(5, 5, 15, 15),
		FromCorners(2, 8, 40, 9),
		FromCorners(100, 100, 120, 140),
		{},
	}

	for i, a := range boxes {
		for j, b := range boxes {
			ab, ba := IOU(a, b), IOU(b, a)
			assert.Equal(t, ab, ba, "IOU(%d,%d) not symmetric", i, j)
			assert.GreaterOrEqual(t, ab, 0.0)
			assert.LessOrEqual(t, ab, 1.0)
		}
	}
}

func TestAngleDegrees(t *testing.T) {
	assert.InDelta(t, 0.0, AngleDegrees(1, 0), 1e-9)
	assert.InDelta(t, 90.0, AngleDegrees(0, 1), 1e-9)
	assert.InDelta(t, 180.0, AngleDegrees(-1, 0), 1e-9)
	assert.InDelta(t, -45.0, AngleDegrees(1, -1), 1e-9)
}

func TestDistance(t *testing.T) {
	assert.InDelta(t, 0.4, Distance(0.5, 0.5, 0.9, 0.5), 1e-9)
	assert.InDelta(t, math.Sqrt(0.02*0.02+0.02*0.02), Distance(0.5, 0.5, 0.52, 0.48), 1e-12)
}
