package analyze

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvirta/bodycomp-go/internal/anatomy"
	"github.com/mvirta/bodycomp-go/internal/conf"
	"github.com/mvirta/bodycomp-go/internal/volume"
)

// writeTimepoint builds a synthetic scan: constant image, spine
// segmentation with T1 and T12 vertebrae and a composition segmentation
// with muscle and SAT blocks inside the thoracic range.
func writeTimepoint(t *testing.T, dir string, imgValue float64) conf.PhaseInput {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))

	img := volume.New(9, 40, 60)
	for i := range img.Data {
		img.Data[i] = float32(imgValue)
	}

	boneSeg := volume.New(9, 40, 60)
	stamp := func(name string, c0, c1 int) {
		label, _ := anatomy.VertebraLabel(name)
		for x := 3; x <= 5; x++ {
			for r := 15; r <= 24; r++ {
				for c := c0; c <= c1; c++ {
					boneSeg.Set(x, r, c, float64(label))
				}
			}
			for r := 2; r <= 5; r++ {
				for c := c0 + 2; c <= c1-2; c++ {
					boneSeg.Set(x, r, c, float64(label))
				}
			}
		}
	}
	stamp("T12", 10, 19)
	stamp("T1", 40, 49)

	compSeg := volume.New(9, 40, 60)
	muscle, _ := anatomy.TissueLabel("Muscle")
	sat, _ := anatomy.TissueLabel("SAT")
	for x := 0; x < 9; x++ {
		for r := 0; r < 10; r++ {
			for c := 20; c <= 29; c++ {
				compSeg.Set(x, r, c, float64(muscle))
			}
			for c := 30; c <= 39; c++ {
				compSeg.Set(x, r, c, float64(sat))
			}
		}
	}

	in := conf.PhaseInput{
		Image:       filepath.Join(dir, "image.nii.gz"),
		Bone:        filepath.Join(dir, "bone.nii.gz"),
		Composition: filepath.Join(dir, "composition.nii.gz"),
	}
	require.NoError(t, volume.Save(in.Image, img))
	require.NoError(t, volume.Save(in.Bone, boneSeg))
	require.NoError(t, volume.Save(in.Composition, compSeg))
	return in
}

func TestRunAnalyzeEndToEnd(t *testing.T) {
	work := t.TempDir()
	prevWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(work))
	t.Cleanup(func() { _ = os.Chdir(prevWD) })

	settings := &conf.Settings{}
	settings.Main.OutputDir = filepath.Join(work, "results")
	settings.Cache.Dir = filepath.Join(work, "cache")
	settings.Cache.MemoryTTLMinutes = 1
	settings.Spine = conf.SpineSettings{
		Connectivity:     4,
		MinMaskPixels:    50,
		ROIRadiusMM:      3,
		StartLevel:       "T1",
		EndLevel:         "T12",
		DropLoneTrailing: true,
	}
	settings.Clinical = conf.ClinicalSettings{Sex: 1, Smoking: 2, Type: 2, TPS: 0, Height: 1.70}
	settings.Pre = writeTimepoint(t, filepath.Join(work, "pre"), 40)
	settings.Post = writeTimepoint(t, filepath.Join(work, "post"), 80)

	// The callback stream goes to stdout; capture it.
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	runErr := runAnalyze(context.Background(), settings)

	w.Close()
	os.Stdout = old
	captured, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, runErr)

	out := string(captured)
	assert.Contains(t, out, "=== Starting Processing Task ===")
	assert.Contains(t, out, "callback@pre_results_path@")
	assert.Contains(t, out, "callback@post_results_path@")
	assert.Contains(t, out, "callback@prediction_path@")
	assert.Contains(t, out, "callback@y@")
	assert.Contains(t, out, "=== Task Finished ===")

	// The audit file named in the callback exists and holds the trail.
	var auditPath string
	for _, line := range strings.Split(out, "\n") {
		if rest, ok := strings.CutPrefix(line, "callback@prediction_path@"); ok {
			auditPath = rest
		}
	}
	require.NotEmpty(t, auditPath)
	data, err := os.ReadFile(auditPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "y = 1 / (1 + exp(-z))")
}
