package predict

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mvirta/bodycomp-go/internal/errors"
)

// WriteAudit appends the full evaluation trail of a prediction to
// <outputDir>/<task>_prediction.txt and returns the file path. The
// format is line oriented so the hosting process can display it as is.
func WriteAudit(outputDir, task string, p *Prediction) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", errors.New(fmt.Errorf("creating output directory %s: %w", outputDir, err)).
			Category(errors.CategoryFileIO).
			Build()
	}
	path := filepath.Join(outputDir, task+"_prediction.txt")

	var b strings.Builder
	fmt.Fprintf(&b, "sex = %d\n", p.Covariates.Sex)
	fmt.Fprintf(&b, "smoking_status1 = %d\n", p.Smoking1)
	fmt.Fprintf(&b, "smoking_status2 = %d\n", p.Smoking2)
	fmt.Fprintf(&b, "type2 = %d\n", p.Type2)
	fmt.Fprintf(&b, "type3 = %d\n", p.Type3)
	fmt.Fprintf(&b, "tps = %d\n", p.Covariates.TPS)
	fmt.Fprintf(&b, "pre_smvi_group = %d\n", p.PreSMVIGroup)
	fmt.Fprintf(&b, "delta_smvi = %v\n", p.DeltaSMVI)
	fmt.Fprintf(&b, "delta_savi = %v\n", p.DeltaSAVI)
	fmt.Fprintf(&b, "intercept = %v\n", intercept)
	b.WriteString("--------------------------------\n")
	fmt.Fprintf(&b, "z = %v * sex %v * smoking_status1 + %v * smoking_status2 + %v * type2 + %v * type3 + %v * tps + %v * pre_smvi_group + %v * delta_smvi + %v * delta_savi %v\n",
		coefSex, coefSmoking1, coefSmoking2, coefType2, coefType3, coefTPS, coefSMVIGroup, coefDeltaSMVI, coefDeltaSAVI, intercept)
	fmt.Fprintf(&b, "z = %v\n", p.Z)
	b.WriteString("--------------------------------\n")
	fmt.Fprintf(&b, "y = 1 / (1 + exp(-z)) = %v\n", p.Y)
	fmt.Fprintf(&b, "y = %v\n", p.Y)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", errors.New(fmt.Errorf("opening audit file %s: %w", path, err)).
			Category(errors.CategoryFileIO).
			Build()
	}
	defer f.Close()
	if _, err := f.WriteString(b.String()); err != nil {
		return "", errors.New(fmt.Errorf("writing audit file %s: %w", path, err)).
			Category(errors.CategoryFileIO).
			Build()
	}
	return path, nil
}
