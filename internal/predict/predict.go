// Package predict evaluates the fixed-coefficient logistic model that
// turns the two phase results and the clinical covariates into a single
// risk probability, and persists the audit trail of the evaluation.
package predict

import (
	"math"

	"github.com/mvirta/bodycomp-go/internal/analysis"
	"github.com/mvirta/bodycomp-go/internal/conf"
	"github.com/mvirta/bodycomp-go/internal/errors"
)

// Model coefficients. These are published model constants, not tunables.
const (
	coefSex       = 0.38904
	coefSmoking1  = -0.05748
	coefSmoking2  = 0.92091
	coefType2     = 1.12320
	coefType3     = 0.66086
	coefTPS       = 0.76735
	coefSMVIGroup = 0.65945
	coefDeltaSMVI = 0.04367
	coefDeltaSAVI = 0.01408
	intercept     = -2.61810

	// Pre-treatment SMVI group cut-point.
	smviCutPoint = 1179.0

	epsilon = 1e-6
)

// Prediction records every intermediate term of one model evaluation.
// Write-once audit artifact, not consumed downstream.
type Prediction struct {
	Covariates conf.ClinicalSettings

	PreSMVI  float64
	PreSAVI  float64
	PostSMVI float64
	PostSAVI float64

	DeltaSMVI    float64
	DeltaSAVI    float64
	PreSMVIGroup int

	Smoking1 int
	Smoking2 int
	Type2    int
	Type3    int

	Z float64
	Y float64
}

// Combine evaluates the model. Pure and deterministic: fixed inputs
// always yield the same probability.
func Combine(cov *conf.ClinicalSettings, pre, post *analysis.PhaseResult) (*Prediction, error) {
	if pre == nil || post == nil {
		return nil, errors.Newf("both phase results are required for prediction").
			Category(errors.CategoryPrediction).
			Build()
	}
	if err := conf.ValidateClinical(cov); err != nil {
		return nil, errors.New(err).Category(errors.CategoryValidation).Build()
	}

	p := &Prediction{Covariates: *cov}

	h2 := cov.Height*cov.Height + epsilon
	p.PreSMVI = pre.SM / h2
	p.PreSAVI = pre.SA / h2
	p.PostSMVI = post.SM / h2
	p.PostSAVI = post.SA / h2

	p.DeltaSMVI = (p.PostSMVI - p.PreSMVI) / (p.PreSMVI + epsilon) * 100
	p.DeltaSAVI = (p.PostSAVI - p.PreSAVI) / (p.PreSAVI + epsilon) * 100

	if p.PreSMVI >= smviCutPoint {
		p.PreSMVIGroup = 1
	}

	// Dummy encodings as the model was fitted.
	p.Smoking1 = 1
	if cov.Smoking == 1 {
		p.Smoking1 = 0
	}
	p.Smoking2 = 1
	if cov.Smoking == 2 {
		p.Smoking2 = 0
	}
	p.Type2 = 1
	if cov.Type == 2 {
		p.Type2 = 0
	}
	p.Type3 = 1
	if cov.Type == 3 {
		p.Type3 = 0
	}

	p.Z = coefSex*float64(cov.Sex) +
		coefSmoking1*float64(p.Smoking1) +
		coefSmoking2*float64(p.Smoking2) +
		coefType2*float64(p.Type2) +
		coefType3*float64(p.Type3) +
		coefTPS*float64(cov.TPS) +
		coefSMVIGroup*float64(p.PreSMVIGroup) +
		coefDeltaSMVI*p.DeltaSMVI +
		coefDeltaSAVI*p.DeltaSAVI +
		intercept

	p.Y = 1 / (1 + math.Exp(-p.Z))
	return p, nil
}
