package mask

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contrastcurve/pkg/frame"
)

func TestBuildCentredRegion(t *testing.T) {
	region := RegionSpec{KernelWidth: 5, KernelHeight: 5, CenterX: 4, CenterY: 4}
	m, err := Build(10, 10, region)
	require.NoError(t, err)

	assert.Equal(t, 10, m.Width())
	assert.Equal(t, 10, m.Height())
	assert.Equal(t, 25, Area(m))

	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			v, err := m.At(x, y)
			require.NoError(t, err)
			inside := x >= 2 && x <= 6 && y >= 2 && y <= 6
			if inside {
				assert.Equal(t, 1.0, v, "cell (%d,%d)", x, y)
			} else {
				assert.Equal(t, 0.0, v, "cell (%d,%d)", x, y)
			}
		}
	}
	assert.False(t, region.Clipped(10, 10))
}

func TestBuildEvenKernel(t *testing.T) {
	// half = 2 on both sides, so an even kernel of 4 covers 5 cells
	m, err := Build(10, 10, RegionSpec{KernelWidth: 4, KernelHeight: 1, CenterX: 5, CenterY: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, Area(m))
}

func TestBuildClipsAtEdges(t *testing.T) {
	tests := []struct {
		name   string
		region RegionSpec
		area   int
		bounds image.Rectangle
	}{
		{
			name:   "top-left corner",
			region: RegionSpec{KernelWidth: 5, KernelHeight: 5, CenterX: 0, CenterY: 0},
			area:   9,
			bounds: image.Rect(0, 0, 3, 3),
		},
		{
			name:   "bottom-right corner",
			region: RegionSpec{KernelWidth: 5, KernelHeight: 5, CenterX: 9, CenterY: 9},
			area:   9,
			bounds: image.Rect(7, 7, 10, 10),
		},
		{
			name:   "entirely outside",
			region: RegionSpec{KernelWidth: 3, KernelHeight: 3, CenterX: 50, CenterY: 50},
			area:   0,
			bounds: image.Rectangle{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Build(10, 10, tt.region)
			require.NoError(t, err)
			assert.Equal(t, tt.area, Area(m))
			assert.True(t, tt.region.Clipped(10, 10))
			assert.Equal(t, tt.bounds.Empty(), tt.region.Bounds(10, 10).Empty())
			if !tt.bounds.Empty() {
				assert.Equal(t, tt.bounds, tt.region.Bounds(10, 10))
			}
		})
	}
}

func TestBuildRejectsNegativeKernel(t *testing.T) {
	_, err := Build(10, 10, RegionSpec{KernelWidth: -1, KernelHeight: 5})
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	m, err := Build(3, 3, RegionSpec{KernelWidth: 1, KernelHeight: 1, CenterX: 1, CenterY: 1})
	require.NoError(t, err)

	f, err := frame.FromData(3, 3, []float64{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	})
	require.NoError(t, err)
	seq := frame.Sequence{f}
	before := seq.Clone()

	out, err := Apply(seq, m)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []float64{0, 0, 0, 0, 5, 0, 0, 0, 0}, out[0].Data())

	// input untouched
	assert.True(t, seq.Equal(before))
}

func TestApplyIdempotent(t *testing.T) {
	m, err := Build(6, 4, RegionSpec{KernelWidth: 3, KernelHeight: 3, CenterX: 2, CenterY: 1})
	require.NoError(t, err)

	var seq frame.Sequence
	for d := 0; d < 3; d++ {
		data := make([]float64, 24)
		for i := range data {
			data[i] = float64(i*(d+1)) + 0.5
		}
		f, err := frame.FromData(6, 4, data)
		require.NoError(t, err)
		seq = append(seq, f)
	}

	once, err := Apply(seq, m)
	require.NoError(t, err)
	twice, err := Apply(once, m)
	require.NoError(t, err)
	assert.True(t, once.Equal(twice))
}

func TestApplyDimensionMismatch(t *testing.T) {
	m, err := Build(4, 4, RegionSpec{KernelWidth: 1, KernelHeight: 1})
	require.NoError(t, err)
	good, _ := frame.New(4, 4)
	bad, _ := frame.New(4, 5)

	_, err = Apply(frame.Sequence{good, bad}, m)
	assert.ErrorIs(t, err, frame.ErrDimensionMismatch)
}

func TestApplyEmptySequence(t *testing.T) {
	m, err := Build(2, 2, RegionSpec{KernelWidth: 1, KernelHeight: 1})
	require.NoError(t, err)
	out, err := Apply(frame.Sequence{}, m)
	require.NoError(t, err)
	assert.Empty(t, out)
}
