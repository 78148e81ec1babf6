package volume

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mvirta/bodycomp-go/internal/errors"
)

// NIfTI-1 datatype codes, the subset produced by segmentation tooling.
const (
	dtUint8   = 2
	dtInt16   = 4
	dtInt32   = 8
	dtFloat32 = 16
	dtFloat64 = 64
	dtInt8    = 256
	dtUint16  = 512
)

const (
	niftiHeaderSize = 348
	niftiVoxOffset  = 352
)

// nifti1Header mirrors the fixed 348 byte NIfTI-1 header layout.
type nifti1Header struct {
	SizeofHdr     int32
	DataTypeName  [10]byte
	DBName        [18]byte
	Extents       int32
	SessionError  int16
	Regular       byte
	DimInfo       byte
	Dim           [8]int16
	IntentP1      float32
	IntentP2      float32
	IntentP3      float32
	IntentCode    int16
	Datatype      int16
	Bitpix        int16
	SliceStart    int16
	Pixdim        [8]float32
	VoxOffset     float32
	SclSlope      float32
	SclInter      float32
	SliceEnd      int16
	SliceCode     byte
	XyztUnits     byte
	CalMax        float32
	CalMin        float32
	SliceDuration float32
	Toffset       float32
	Glmax         int32
	Glmin         int32
	Descrip       [80]byte
	AuxFile       [24]byte
	QformCode     int16
	SformCode     int16
	QuaternB      float32
	QuaternC      float32
	QuaternD      float32
	QoffsetX      float32
	QoffsetY      float32
	QoffsetZ      float32
	SrowX         [4]float32
	SrowY         [4]float32
	SrowZ         [4]float32
	IntentName    [16]byte
	Magic         [4]byte
}

// Load reads a NIfTI-1 volume from path. Both plain .nii and gzip
// compressed .nii.gz files are supported; scl_slope/scl_inter scaling is
// applied on load.
func Load(path string) (*Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(fmt.Errorf("opening volume %s: %w", path, err)).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.New(fmt.Errorf("gzip header of %s: %w", path, err)).
				Category(errors.CategoryVolumeLoad).
				Context("path", path).
				Build()
		}
		defer gz.Close()
		r = gz
	}

	vol, err := decode(r)
	if err != nil {
		return nil, errors.New(fmt.Errorf("decoding %s: %w", path, err)).
			Category(errors.CategoryVolumeLoad).
			Context("path", path).
			Build()
	}
	return vol, nil
}

func decode(r io.Reader) (*Volume, error) {
	raw := make([]byte, niftiHeaderSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	var hdr nifti1Header
	order := binary.ByteOrder(binary.LittleEndian)
	if err := unmarshalHeader(raw, order, &hdr); err != nil {
		return nil, err
	}
	if hdr.SizeofHdr != niftiHeaderSize {
		order = binary.BigEndian
		if err := unmarshalHeader(raw, order, &hdr); err != nil {
			return nil, err
		}
		if hdr.SizeofHdr != niftiHeaderSize {
			return nil, fmt.Errorf("not a NIfTI-1 file (sizeof_hdr=%d)", hdr.SizeofHdr)
		}
	}
	if m := hdr.Magic; !(m[0] == 'n' && (m[1] == '+' || m[1] == 'i') && m[2] == '1') {
		return nil, fmt.Errorf("unexpected NIfTI magic %q", hdr.Magic[:3])
	}
	if hdr.Dim[0] < 3 {
		return nil, fmt.Errorf("need a 3D volume, got %d dimensions", hdr.Dim[0])
	}
	for d := int16(4); d <= hdr.Dim[0]; d++ {
		if hdr.Dim[d] > 1 {
			return nil, fmt.Errorf("volume has %d entries along dimension %d, only 3D input is supported", hdr.Dim[d], d)
		}
	}

	nx, ny, nz := int(hdr.Dim[1]), int(hdr.Dim[2]), int(hdr.Dim[3])
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return nil, fmt.Errorf("invalid volume shape %dx%dx%d", nx, ny, nz)
	}

	vol := New(nx, ny, nz)
	for a := 0; a < 3; a++ {
		s := float64(hdr.Pixdim[a+1])
		if s <= 0 || math.IsNaN(s) {
			s = 1 // missing spacing metadata, substitute unit default
		}
		vol.Spacing[a] = s
	}
	vol.Dir = directionFromHeader(&hdr)
	vol.Canonical = false

	// Skip any header extension bytes up to the voxel data offset.
	if skip := int64(hdr.VoxOffset) - niftiHeaderSize; skip > 0 {
		if _, err := io.CopyN(io.Discard, r, skip); err != nil {
			return nil, fmt.Errorf("skipping to voxel data: %w", err)
		}
	}

	if err := readVoxels(r, order, &hdr, vol.Data); err != nil {
		return nil, err
	}

	slope, inter := float64(hdr.SclSlope), float64(hdr.SclInter)
	if slope != 0 && !(slope == 1 && inter == 0) {
		for i, v := range vol.Data {
			vol.Data[i] = float32(float64(v)*slope + inter)
		}
	}
	return vol, nil
}

func unmarshalHeader(raw []byte, order binary.ByteOrder, hdr *nifti1Header) error {
	return binary.Read(bytes.NewReader(raw), order, hdr)
}

// directionFromHeader derives the voxel-to-world direction matrix,
// preferring the sform, falling back to the qform quaternion, then to
// identity when neither is set.
func directionFromHeader(hdr *nifti1Header) [3][3]float64 {
	if hdr.SformCode > 0 {
		rows := [3][4]float32{hdr.SrowX, hdr.SrowY, hdr.SrowZ}
		var dir [3][3]float64
		for j := 0; j < 3; j++ {
			norm := 0.0
			for i := 0; i < 3; i++ {
				norm += float64(rows[i][j]) * float64(rows[i][j])
			}
			norm = math.Sqrt(norm)
			if norm == 0 {
				return identityDir()
			}
			for i := 0; i < 3; i++ {
				dir[i][j] = float64(rows[i][j]) / norm
			}
		}
		return dir
	}
	if hdr.QformCode > 0 {
		b, c, d := float64(hdr.QuaternB), float64(hdr.QuaternC), float64(hdr.QuaternD)
		a2 := 1 - b*b - c*c - d*d
		a := 0.0
		if a2 > 0 {
			a = math.Sqrt(a2)
		}
		qfac := float64(hdr.Pixdim[0])
		if qfac == 0 {
			qfac = 1
		}
		dir := [3][3]float64{
			{a*a + b*b - c*c - d*d, 2*b*c - 2*a*d, qfac * (2*b*d + 2*a*c)},
			{2*b*c + 2*a*d, a*a + c*c - b*b - d*d, qfac * (2*c*d - 2*a*b)},
			{2*b*d - 2*a*c, 2*c*d + 2*a*b, qfac * (a*a + d*d - c*c - b*b)},
		}
		return dir
	}
	return identityDir()
}

func readVoxels(r io.Reader, order binary.ByteOrder, hdr *nifti1Header, out []float32) error {
	n := len(out)
	elemSize := int(hdr.Bitpix) / 8
	if elemSize <= 0 {
		return fmt.Errorf("invalid bitpix %d", hdr.Bitpix)
	}
	buf := make([]byte, n*elemSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("reading %d voxels: %w", n, err)
	}

	switch hdr.Datatype {
	case dtUint8:
		for i := 0; i < n; i++ {
			out[i] = float32(buf[i])
		}
	case dtInt8:
		for i := 0; i < n; i++ {
			out[i] = float32(int8(buf[i]))
		}
	case dtInt16:
		for i := 0; i < n; i++ {
			out[i] = float32(int16(order.Uint16(buf[i*2:])))
		}
	case dtUint16:
		for i := 0; i < n; i++ {
			out[i] = float32(order.Uint16(buf[i*2:]))
		}
	case dtInt32:
		for i := 0; i < n; i++ {
			out[i] = float32(int32(order.Uint32(buf[i*4:])))
		}
	case dtFloat32:
		for i := 0; i < n; i++ {
			out[i] = math.Float32frombits(order.Uint32(buf[i*4:]))
		}
	case dtFloat64:
		for i := 0; i < n; i++ {
			out[i] = float32(math.Float64frombits(order.Uint64(buf[i*8:])))
		}
	default:
		return fmt.Errorf("unsupported NIfTI datatype %d", hdr.Datatype)
	}
	return nil
}
