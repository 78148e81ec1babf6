package volume

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mvirta/bodycomp-go/internal/errors"
)

// Save writes the volume to path as a float32 NIfTI-1 file, gzip
// compressed when the path ends in .gz. The direction matrix and spacing
// are stored in the sform.
func Save(path string, v *Volume) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.New(fmt.Errorf("creating %s: %w", path, err)).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	var w io.Writer = bw
	var gz *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(bw)
		w = gz
	}

	if err := encode(w, v); err != nil {
		return errors.New(fmt.Errorf("encoding %s: %w", path, err)).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func encode(w io.Writer, v *Volume) error {
	hdr := nifti1Header{
		SizeofHdr: niftiHeaderSize,
		Regular:   'r',
		Datatype:  dtFloat32,
		Bitpix:    32,
		VoxOffset: niftiVoxOffset,
		SclSlope:  1,
		SformCode: 1,
		QformCode: 0,
		Magic:     [4]byte{'n', '+', '1', 0},
	}
	hdr.Dim[0] = 3
	hdr.Dim[1], hdr.Dim[2], hdr.Dim[3] = int16(v.Shape[0]), int16(v.Shape[1]), int16(v.Shape[2])
	for d := 4; d < 8; d++ {
		hdr.Dim[d] = 1
	}
	hdr.Pixdim[0] = 1
	for a := 0; a < 3; a++ {
		hdr.Pixdim[a+1] = float32(v.Spacing[a])
	}
	for j := 0; j < 3; j++ {
		hdr.SrowX[j] = float32(v.Dir[0][j] * v.Spacing[j])
		hdr.SrowY[j] = float32(v.Dir[1][j] * v.Spacing[j])
		hdr.SrowZ[j] = float32(v.Dir[2][j] * v.Spacing[j])
	}

	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	// Pad to the voxel data offset.
	if _, err := w.Write(make([]byte, niftiVoxOffset-niftiHeaderSize)); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, v.Data)
}
