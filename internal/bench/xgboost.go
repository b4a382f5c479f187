package bench

import (
	"context"
	"math"
)

// XGBoost is the gradient boosting hyperparameter benchmark: a seeded
// surrogate over the usual XGBoost knobs with tree count and data
// subsample fidelities.
type XGBoost struct{}

// NewXGBoost creates the XGBoost benchmark.
func NewXGBoost() *XGBoost {
	return &XGBoost{}
}

func (b *XGBoost) ID() string {
	return "ml.xgboost_benchmark"
}

func (b *XGBoost) Space() *Space {
	return &Space{Params: []Parameter{
		{Name: "eta", Kind: KindFloat, Lower: math.Exp2(-10), Upper: 1, Log: true},
		{Name: "max_depth", Kind: KindInt, Lower: 1, Upper: 15},
		{Name: "subsample", Kind: KindFloat, Lower: 0.1, Upper: 1},
		{Name: "colsample_bytree", Kind: KindFloat, Lower: 0.1, Upper: 1},
		{Name: "reg_lambda", Kind: KindFloat, Lower: math.Exp2(-10), Upper: math.Exp2(10), Log: true},
	}}
}

func (b *XGBoost) FidelitySpace() *Space {
	return &Space{Params: []Parameter{
		{Name: "n_estimators", Kind: KindInt, Lower: 1, Upper: 256, Default: 256},
		{Name: "dataset_fraction", Kind: KindFloat, Lower: 0.1, Upper: 1, Default: 1.0},
	}}
}

func (b *XGBoost) Objective(ctx context.Context, cfg Configuration, fidelity Configuration, opts Options) (Result, error) {
	if err := b.Space().Validate(cfg); err != nil {
		return Result{}, err
	}
	fidelity, err := b.FidelitySpace().ValidateFidelity(fidelity)
	if err != nil {
		return Result{}, err
	}

	trees := fidelity.Int("n_estimators")
	fraction := fidelity.Float("dataset_fraction")
	rng := newRNG(opts)

	errRate := b.surface(cfg, trees, fraction)
	errRate += rng.NormFloat64() * 0.008 * (1.1 - fraction)
	errRate = clamp(errRate, 0, 1)

	cost := 0.18 * float64(trees) * fraction * float64(cfg.Int("max_depth"))
	return Result{
		FunctionValue: errRate,
		Cost:          cost,
		Info: map[string]any{
			"validation_error": errRate,
			"fidelity":         fidelity,
		},
	}, nil
}

// ObjectiveTest evaluates at the full tree and data budget.
func (b *XGBoost) ObjectiveTest(ctx context.Context, cfg Configuration, fidelity Configuration, opts Options) (Result, error) {
	result, err := b.Objective(ctx, cfg, nil, opts)
	if err != nil {
		return Result{}, err
	}
	result.Info["test_error"] = result.FunctionValue
	return result, nil
}

func (b *XGBoost) Meta() map[string]any {
	return map[string]any{
		"name":      "XGBoost",
		"surrogate": true,
		"references": []string{
			"Tianqi Chen, Carlos Guestrin",
			"XGBoost: A Scalable Tree Boosting System",
			"https://arxiv.org/abs/1603.02754",
		},
	}
}

// surface is the noise-free validation error. Small learning rates need
// many trees; deep trees overfit; mild regularization helps.
func (b *XGBoost) surface(cfg Configuration, trees int, fraction float64) float64 {
	eta := cfg.Float("eta")
	depth := float64(cfg.Int("max_depth"))
	lambda := math.Log2(cfg.Float("reg_lambda"))

	// Effective learning progress saturates with eta * trees.
	progress := 1 - math.Exp(-eta*float64(trees)/8)
	underfit := 0.4 * (1 - progress)
	overfit := 0.02 * math.Max(0, depth-6) * progress
	regMiss := 0.002 * (lambda - 1) * (lambda - 1)
	subPenalty := 0.05 * (1 - cfg.Float("subsample")) * (1 - cfg.Float("colsample_bytree"))

	return clamp(0.04+underfit+overfit+regMiss+subPenalty+0.1*(1-fraction), 0, 1)
}
