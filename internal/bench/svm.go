package bench

import (
	"context"
	"math"
)

// SVM is the support vector machine hyperparameter benchmark: a smooth
// seeded surrogate of RBF-SVM validation error over (C, gamma), with a
// data-subsample fidelity. The surrogate reproduces the shape of the
// live benchmark (a basin in log-log space, noisier and cheaper at
// small subsample fractions) without training models.
type SVM struct{}

// NewSVM creates the SVM benchmark.
func NewSVM() *SVM {
	return &SVM{}
}

func (b *SVM) ID() string {
	return "ml.svm_benchmark"
}

// Space spans C and gamma over [2^-10, 2^10] on a log scale.
func (b *SVM) Space() *Space {
	return &Space{Params: []Parameter{
		{Name: "C", Kind: KindFloat, Lower: math.Exp2(-10), Upper: math.Exp2(10), Log: true},
		{Name: "gamma", Kind: KindFloat, Lower: math.Exp2(-10), Upper: math.Exp2(10), Log: true},
	}}
}

// FidelitySpace is the fraction of training data used.
func (b *SVM) FidelitySpace() *Space {
	return &Space{Params: []Parameter{
		{Name: "dataset_fraction", Kind: KindFloat, Lower: 1.0 / 512, Upper: 1, Default: 1.0},
	}}
}

func (b *SVM) Objective(ctx context.Context, cfg Configuration, fidelity Configuration, opts Options) (Result, error) {
	if err := b.Space().Validate(cfg); err != nil {
		return Result{}, err
	}
	fidelity, err := b.FidelitySpace().ValidateFidelity(fidelity)
	if err != nil {
		return Result{}, err
	}

	fraction := fidelity.Float("dataset_fraction")
	rng := newRNG(opts)

	errRate := b.surface(cfg, fraction)
	errRate += rng.NormFloat64() * 0.01 * (1.1 - fraction)
	errRate = clamp(errRate, 0, 1)

	cost := b.cost(cfg, fraction)
	return Result{
		FunctionValue: errRate,
		Cost:          cost,
		Info: map[string]any{
			"validation_error": errRate,
			"fidelity":         fidelity,
		},
	}, nil
}

// ObjectiveTest evaluates on the full data set without subsampling.
func (b *SVM) ObjectiveTest(ctx context.Context, cfg Configuration, fidelity Configuration, opts Options) (Result, error) {
	result, err := b.Objective(ctx, cfg, nil, opts)
	if err != nil {
		return Result{}, err
	}
	result.Info["test_error"] = result.FunctionValue
	return result, nil
}

func (b *SVM) Meta() map[string]any {
	return map[string]any{
		"name":      "Support Vector Machine",
		"surrogate": true,
		"references": []string{
			"Aaron Klein, Stefan Falkner, Simon Bartels, Philipp Hennig, Frank Hutter",
			"Fast Bayesian Optimization of Machine Learning Hyperparameters on Large Datasets",
			"http://proceedings.mlr.press/v54/klein17a.html",
		},
	}
}

// surface is the noise-free validation error: a basin around
// (log2 C, log2 gamma) = (3, -4), degraded at small fractions.
func (b *SVM) surface(cfg Configuration, fraction float64) float64 {
	x := math.Log2(cfg.Float("C"))
	y := math.Log2(cfg.Float("gamma"))

	dist := (x-3)*(x-3)/60 + (y+4)*(y+4)/40
	base := 0.05 + 0.45*(1-math.Exp(-dist))
	return base + 0.2*(1-fraction)
}

// cost models training time: linear in the subsample size, growing
// with large C (harder optimization problems).
func (b *SVM) cost(cfg Configuration, fraction float64) float64 {
	x := math.Log2(cfg.Float("C"))
	return 43.0 * fraction * (1 + 0.08*math.Max(0, x))
}
