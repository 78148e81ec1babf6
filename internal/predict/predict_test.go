package predict

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvirta/bodycomp-go/internal/analysis"
	"github.com/mvirta/bodycomp-go/internal/conf"
)

func exampleInputs() (*conf.ClinicalSettings, *analysis.PhaseResult, *analysis.PhaseResult) {
	cov := &conf.ClinicalSettings{Sex: 1, Smoking: 2, Type: 2, TPS: 0, Height: 1.70}
	pre := &analysis.PhaseResult{SM: 6000, SA: 2000}
	post := &analysis.PhaseResult{SM: 6200, SA: 1900}
	return cov, pre, post
}

func TestCombineReferenceExample(t *testing.T) {
	cov, pre, post := exampleInputs()

	p, err := Combine(cov, pre, post)
	require.NoError(t, err)

	// Hand-computed from the model definition.
	assert.InDelta(t, 2076.1238490920937, p.PreSMVI, 1e-6)
	assert.Equal(t, 1, p.PreSMVIGroup)
	assert.InDelta(t, 3.3333333317, p.DeltaSMVI, 1e-6)
	assert.InDelta(t, -4.9999999928, p.DeltaSAVI, 1e-6)

	// smoking=2: first dummy set, second cleared; type=2 mirrors that.
	assert.Equal(t, 1, p.Smoking1)
	assert.Equal(t, 0, p.Smoking2)
	assert.Equal(t, 0, p.Type2)
	assert.Equal(t, 1, p.Type3)

	assert.InDelta(t, -0.8910633333017199, p.Z, 1e-6)
	assert.InDelta(t, 0.29089044151850807, p.Y, 1e-6)
}

func TestCombineDeterminism(t *testing.T) {
	cov, pre, post := exampleInputs()

	first, err := Combine(cov, pre, post)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Combine(cov, pre, post)
		require.NoError(t, err)
		assert.InDelta(t, first.Y, again.Y, 1e-9)
	}
}

func TestCombineZeroPreVolume(t *testing.T) {
	cov, _, post := exampleInputs()
	pre := &analysis.PhaseResult{SM: 0, SA: 0}

	p, err := Combine(cov, pre, post)
	require.NoError(t, err)
	// The epsilon keeps the deltas finite.
	assert.False(t, p.Y != p.Y, "probability must not be NaN")
	assert.GreaterOrEqual(t, p.Y, 0.0)
	assert.LessOrEqual(t, p.Y, 1.0)
}

func TestCombineRequiresBothResults(t *testing.T) {
	cov, pre, _ := exampleInputs()
	_, err := Combine(cov, pre, nil)
	assert.Error(t, err)
	_, err = Combine(cov, nil, nil)
	assert.Error(t, err)
}

func TestCombineRejectsBadCovariates(t *testing.T) {
	cov, pre, post := exampleInputs()
	cov.Type = 9
	_, err := Combine(cov, pre, post)
	assert.Error(t, err)
}

func TestWriteAudit(t *testing.T) {
	cov, pre, post := exampleInputs()
	p, err := Combine(cov, pre, post)
	require.NoError(t, err)

	dir := t.TempDir()
	path, err := WriteAudit(dir, "20240101_000000_abcd1234", p)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "sex = 1")
	assert.Contains(t, text, "smoking_status1 = 1")
	assert.Contains(t, text, "pre_smvi_group = 1")
	assert.Contains(t, text, "intercept = -2.6181")
	assert.Contains(t, text, "y = 1 / (1 + exp(-z))")

	// Appends on rerun.
	_, err = WriteAudit(dir, "20240101_000000_abcd1234", p)
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "sex = 1"))
}
