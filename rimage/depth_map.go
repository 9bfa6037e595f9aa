// Package rimage holds depth images produced by the renderer in a sensor-like form: millimeter
// resolution, zero meaning no reading.
package rimage

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Depth is the depth in mm. Zero means no reading.
type Depth uint16

// MaxDepth is the maximum allowed depth.
const MaxDepth = Depth(math.MaxUint16)

// DepthMap fulfills the image.Image interface and stores depths row-major.
type DepthMap struct {
	width  int
	height int

	data []Depth
}

// NewEmptyDepthMap returns an unset depth map with the given dimensions.
func NewEmptyDepthMap(width, height int) *DepthMap {
	return &DepthMap{
		width:  width,
		height: height,
		data:   make([]Depth, width*height),
	}
}

// NewDepthMapFromMeters converts row-major depths in meters into a depth map. Non-finite or
// negative values become zero; values beyond MaxDepth are clamped.
func NewDepthMapFromMeters(meters []float32, width, height int) (*DepthMap, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("bad width or height for depth map %d %d", width, height)
	}
	if len(meters) != width*height {
		return nil, errors.Errorf("got %d depth values for a %dx%d depth map", len(meters), width, height)
	}
	dm := NewEmptyDepthMap(width, height)
	for i, m := range meters {
		dm.data[i] = metersToDepth(float64(m))
	}
	return dm, nil
}

func metersToDepth(m float64) Depth {
	if math.IsNaN(m) || math.IsInf(m, 0) || m <= 0 {
		return 0
	}
	mm := math.Round(m * 1000)
	if mm > float64(MaxDepth) {
		return MaxDepth
	}
	return Depth(mm)
}

// HasData returns whether or not the depth map has any data.
func (dm *DepthMap) HasData() bool {
	return dm.width > 0 && dm.data != nil
}

// Width returns the width of the depth map.
func (dm *DepthMap) Width() int {
	return dm.width
}

// Height returns the height of the depth map.
func (dm *DepthMap) Height() int {
	return dm.height
}

func (dm *DepthMap) kxy(x, y int) int {
	return (y * dm.width) + x
}

// GetDepth returns the depth at the given column and row.
func (dm *DepthMap) GetDepth(x, y int) Depth {
	return dm.data[dm.kxy(x, y)]
}

// Set sets the depth at the given column and row.
func (dm *DepthMap) Set(x, y int, val Depth) {
	dm.data[dm.kxy(x, y)] = val
}

// Clone returns a deep copy.
func (dm *DepthMap) Clone() *DepthMap {
	ret := &DepthMap{width: dm.width, height: dm.height, data: make([]Depth, len(dm.data))}
	copy(ret.data, dm.data)
	return ret
}

// ColorModel is 16-bit grayscale.
func (dm *DepthMap) ColorModel() color.Model {
	return color.Gray16Model
}

// Bounds returns the rectangle dimensions of the image.
func (dm *DepthMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, dm.width, dm.height)
}

// At returns the depth at the given point as a 16-bit gray color.
func (dm *DepthMap) At(x, y int) color.Color {
	return color.Gray16{uint16(dm.GetDepth(x, y))}
}

// MinMax returns the minimum and maximum non-zero depth. Both are zero when nothing was seen.
func (dm *DepthMap) MinMax() (Depth, Depth) {
	minDepth := MaxDepth
	maxDepth := Depth(0)
	seen := false

	for _, z := range dm.data {
		if z == 0 {
			continue
		}
		seen = true
		if z < minDepth {
			minDepth = z
		}
		if z > maxDepth {
			maxDepth = z
		}
	}
	if !seen {
		return 0, 0
	}
	return minDepth, maxDepth
}

// DepthStats summarizes the valid (non-zero) pixels of a depth map, in mm.
type DepthStats struct {
	Valid  int
	Total  int
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	StdDev float64
}

// Stats computes summary statistics over the valid pixels.
func (dm *DepthMap) Stats() (DepthStats, error) {
	valid := make(stats.Float64Data, 0, len(dm.data))
	for _, z := range dm.data {
		if z != 0 {
			valid = append(valid, float64(z))
		}
	}
	ret := DepthStats{Valid: len(valid), Total: len(dm.data)}
	if len(valid) == 0 {
		return ret, nil
	}

	var err, errs error
	ret.Min, err = valid.Min()
	errs = multierr.Combine(errs, err)
	ret.Max, err = valid.Max()
	errs = multierr.Combine(errs, err)
	ret.Mean, err = valid.Mean()
	errs = multierr.Combine(errs, err)
	ret.Median, err = valid.Median()
	errs = multierr.Combine(errs, err)
	ret.StdDev, err = valid.StandardDeviation()
	errs = multierr.Combine(errs, err)
	if errs != nil {
		return DepthStats{}, errors.Wrap(errs, "cannot compute depth statistics")
	}
	return ret, nil
}

// WriteToPNG writes the depth map as a 16-bit grayscale PNG, one mm per gray level.
func (dm *DepthMap) WriteToPNG(fn string) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return png.Encode(f, dm)
}

// WriteToFile writes the depth map in its raw binary format, gzipped when fn ends in ".gz".
func (dm *DepthMap) WriteToFile(fn string) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	var out io.Writer = f
	if filepath.Ext(fn) == ".gz" {
		gout := gzip.NewWriter(f)
		defer func() {
			err = multierr.Combine(err, gout.Close())
		}()
		out = gout
	}

	bufOut := bufio.NewWriter(out)
	if _, err := dm.WriteTo(bufOut); err != nil {
		return err
	}
	return bufOut.Flush()
}

// WriteTo writes the raw format: width and height as little endian uint64s followed by one
// uint64 per pixel, column by column.
func (dm *DepthMap) WriteTo(out io.Writer) (int64, error) {
	buf := make([]byte, 8)
	var total int64

	write := func(v uint64) error {
		binary.LittleEndian.PutUint64(buf, v)
		n, err := out.Write(buf)
		total += int64(n)
		return err
	}

	if err := write(uint64(dm.width)); err != nil {
		return total, err
	}
	if err := write(uint64(dm.height)); err != nil {
		return total, err
	}
	for x := 0; x < dm.width; x++ {
		for y := 0; y < dm.height; y++ {
			if err := write(uint64(dm.GetDepth(x, y))); err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

func readNext(r io.Reader) (uint64, error) {
	data := make([]byte, 8)
	if _, err := io.ReadFull(r, data); err != nil {
		return 0, errors.Wrap(err, "truncated depth map")
	}
	return binary.LittleEndian.Uint64(data), nil
}

// ParseDepthMap reads a depth map written by WriteToFile.
func ParseDepthMap(fn string) (dm *DepthMap, err error) {
	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	var r io.Reader = f
	if filepath.Ext(fn) == ".gz" {
		gr, gzErr := gzip.NewReader(f)
		if gzErr != nil {
			return nil, gzErr
		}
		defer func() {
			err = multierr.Combine(err, gr.Close())
		}()
		r = gr
	}
	return ReadDepthMap(bufio.NewReader(r))
}

// ReadDepthMap reads the raw format produced by WriteTo.
func ReadDepthMap(r *bufio.Reader) (*DepthMap, error) {
	rawWidth, err := readNext(r)
	if err != nil {
		return nil, err
	}
	rawHeight, err := readNext(r)
	if err != nil {
		return nil, err
	}
	if rawWidth == 0 || rawWidth >= 100000 || rawHeight == 0 || rawHeight >= 100000 {
		return nil, errors.Errorf("bad width or height for depth map %v %v", rawWidth, rawHeight)
	}

	dm := NewEmptyDepthMap(int(rawWidth), int(rawHeight))
	for x := 0; x < dm.width; x++ {
		for y := 0; y < dm.height; y++ {
			temp, err := readNext(r)
			if err != nil {
				return nil, err
			}
			if temp > uint64(MaxDepth) {
				return nil, errors.Errorf("depth %d at (%d, %d) out of range", temp, x, y)
			}
			dm.Set(x, y, Depth(temp))
		}
	}
	return dm, nil
}
