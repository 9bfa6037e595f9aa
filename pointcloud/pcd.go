package pointcloud

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// PCDType is the format of a pcd file.
type PCDType int

const (
	// PCDAscii ascii format for pcd.
	PCDAscii PCDType = iota
	// PCDBinary binary format for pcd.
	PCDBinary
)

const pcdCommentChar = "#"

var pcdHeaderFields = []string{"VERSION", "FIELDS", "SIZE", "TYPE", "COUNT", "WIDTH", "HEIGHT", "VIEWPOINT", "POINTS", "DATA"}

func colorToPCDInt(pt Data) int {
	if pt == nil || !pt.HasColor() {
		return 0
	}

	r, g, b := pt.RGB255()
	x := 0

	x |= (int(r) << 16)
	x |= (int(g) << 8)
	x |= (int(b) << 0)
	return x
}

func pcdIntToColor(c int) color.NRGBA {
	r := uint8(0xFF & (c >> 16))
	g := uint8(0xFF & (c >> 8))
	b := uint8(0xFF & (c >> 0))
	return color.NRGBA{r, g, b, 255}
}

func pcdFields(meta MetaData) []string {
	fields := []string{"x", "y", "z"}
	if meta.HasColor {
		fields = append(fields, "rgb")
	}
	if meta.HasValue {
		fields = append(fields, "label")
	}
	return fields
}

// ToPCD writes the cloud as an unorganized PCD v0.7 file. Coordinates are written as stored.
func ToPCD(cloud PointCloud, out io.Writer, outputType PCDType) error {
	fields := pcdFields(cloud.MetaData())
	sizes := make([]string, len(fields))
	types := make([]string, len(fields))
	counts := make([]string, len(fields))
	for i, f := range fields {
		sizes[i] = "4"
		counts[i] = "1"
		switch f {
		case "rgb", "label":
			types[i] = "I"
		default:
			types[i] = "F"
		}
	}

	var dataType string
	switch outputType {
	case PCDAscii:
		dataType = "ascii"
	case PCDBinary:
		dataType = "binary"
	default:
		return errors.Errorf("unsupported pcd output type %d", outputType)
	}

	_, err := fmt.Fprintf(out, "VERSION .7\n"+
		"FIELDS %s\n"+
		"SIZE %s\n"+
		"TYPE %s\n"+
		"COUNT %s\n"+
		"WIDTH %d\n"+
		"HEIGHT 1\n"+
		"VIEWPOINT 0 0 0 1 0 0 0\n"+
		"POINTS %d\n"+
		"DATA %s\n",
		strings.Join(fields, " "),
		strings.Join(sizes, " "),
		strings.Join(types, " "),
		strings.Join(counts, " "),
		cloud.Size(),
		cloud.Size(),
		dataType)
	if err != nil {
		return err
	}
	return writePCDData(cloud, out, outputType)
}

func writePCDData(cloud PointCloud, out io.Writer, pcdtype PCDType) error {
	meta := cloud.MetaData()
	var err error
	buf := make([]byte, 0, 20)
	cloud.Iterate(func(pos r3.Vector, d Data) bool {
		switch pcdtype {
		case PCDBinary:
			buf = buf[:0]
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(pos.X)))
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(pos.Y)))
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(pos.Z)))
			if meta.HasColor {
				buf = binary.LittleEndian.AppendUint32(buf, uint32(colorToPCDInt(d)))
			}
			if meta.HasValue {
				buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(dataValue(d))))
			}
			_, err = out.Write(buf)
		case PCDAscii:
			line := fmt.Sprintf("%f %f %f", pos.X, pos.Y, pos.Z)
			if meta.HasColor {
				line += fmt.Sprintf(" %d", colorToPCDInt(d))
			}
			if meta.HasValue {
				line += fmt.Sprintf(" %d", dataValue(d))
			}
			_, err = fmt.Fprintln(out, line)
		}
		return err == nil
	})
	return err
}

func dataValue(d Data) int {
	if d == nil || !d.HasValue() {
		return 0
	}
	return d.Value()
}

type pcdHeader struct {
	fields   []string
	hasColor bool
	hasValue bool
	points   uint64
	data     PCDType
}

func parsePCDHeaderLine(line string, index int, header *pcdHeader) error {
	name := pcdHeaderFields[index]
	field, value, _ := strings.Cut(line, " ")
	if field != name {
		return errors.Errorf("line is supposed to start with %s but is %s", name, line)
	}
	tokens := strings.Fields(value)

	switch name {
	case "VERSION":
		if value != ".7" && value != "0.7" {
			return errors.Errorf("unsupported pcd version %s", value)
		}
	case "FIELDS":
		if len(tokens) < 3 || tokens[0] != "x" || tokens[1] != "y" || tokens[2] != "z" {
			return errors.Errorf("unsupported pcd fields %s", value)
		}
		for _, tok := range tokens[3:] {
			switch tok {
			case "rgb":
				header.hasColor = true
			case "label":
				header.hasValue = true
			default:
				return errors.Errorf("unsupported pcd field %s", tok)
			}
		}
		header.fields = tokens
	case "SIZE", "TYPE", "COUNT":
		if len(tokens) != len(header.fields) {
			return errors.Errorf("unexpected number of fields in %s line", name)
		}
	case "WIDTH", "HEIGHT":
		if _, err := strconv.ParseUint(value, 10, 64); err != nil {
			return errors.Wrapf(err, "invalid %s field %s", name, value)
		}
	case "VIEWPOINT":
		if len(tokens) != 7 {
			return errors.Errorf("unexpected number of fields in VIEWPOINT line. Expected 7, got %d", len(tokens))
		}
	case "POINTS":
		points, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid POINTS field %s", value)
		}
		header.points = points
	case "DATA":
		switch value {
		case "ascii":
			header.data = PCDAscii
		case "binary":
			header.data = PCDBinary
		default:
			return errors.Errorf("unsupported pcd data type %s", value)
		}
	}
	return nil
}

// ReadPCD reads a PCD file in the layouts ToPCD produces.
func ReadPCD(inRaw io.Reader) (PointCloud, error) {
	header := pcdHeader{}
	in := bufio.NewReader(inRaw)
	headerLineCount := 0
	for headerLineCount < len(pcdHeaderFields) {
		line, err := in.ReadString('\n')
		if err != nil {
			return nil, errors.Wrapf(err, "error reading header line %d", headerLineCount)
		}
		line, _, _ = strings.Cut(line, pcdCommentChar)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := parsePCDHeaderLine(line, headerLineCount, &header); err != nil {
			return nil, err
		}
		headerLineCount++
	}

	pc := NewWithPrealloc(int(header.points))
	row := make([]float64, len(header.fields))
	binBuf := make([]byte, 4*len(header.fields))
	for i := 0; i < int(header.points); i++ {
		switch header.data {
		case PCDAscii:
			line, err := in.ReadString('\n')
			if err != nil && !(errors.Is(err, io.EOF) && line != "") {
				return nil, errors.Wrapf(err, "reading point %d", i)
			}
			tokens := strings.Fields(line)
			if len(tokens) != len(header.fields) {
				return nil, errors.Errorf("unexpected number of fields in point %d", i)
			}
			for j, token := range tokens {
				row[j], err = strconv.ParseFloat(token, 64)
				if err != nil {
					return nil, errors.Wrapf(err, "invalid point %d field %s", i, token)
				}
			}
		case PCDBinary:
			if _, err := io.ReadFull(in, binBuf); err != nil {
				return nil, errors.Wrapf(err, "reading point %d", i)
			}
			for j := range header.fields {
				raw := binary.LittleEndian.Uint32(binBuf[4*j:])
				if j < 3 {
					row[j] = float64(math.Float32frombits(raw))
				} else {
					row[j] = float64(int32(raw))
				}
			}
		}
		if err := pc.Set(pointFromRow(row, header)); err != nil {
			return nil, err
		}
	}
	return pc, nil
}

func pointFromRow(row []float64, header pcdHeader) (r3.Vector, Data) {
	p := r3.Vector{row[0], row[1], row[2]}
	next := 3
	data := &basicData{}
	if header.hasColor {
		data.hasColor = true
		data.c = pcdIntToColor(int(row[next]))
		next++
	}
	if header.hasValue {
		data.hasValue = true
		data.value = int(row[next])
	}
	return p, data
}
