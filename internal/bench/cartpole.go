package bench

import (
	"context"
	"math"
)

// Cartpole is the reinforcement learning benchmark: PPO hyperparameters
// evaluated on the cartpole balancing task. The returned function value
// is the mean number of episodes needed to solve the task, so lower is
// better. The budget fidelity controls how many independent training
// repetitions are averaged.
type Cartpole struct{}

// NewCartpole creates the cartpole benchmark.
func NewCartpole() *Cartpole {
	return &Cartpole{}
}

const cartpoleMaxBudget = 9

func (b *Cartpole) ID() string {
	return "rl.cartpole"
}

func (b *Cartpole) Space() *Space {
	return &Space{Params: []Parameter{
		{Name: "batch_size", Kind: KindInt, Lower: 8, Upper: 256, Log: true},
		{Name: "learning_rate", Kind: KindFloat, Lower: 1e-7, Upper: 1e-1, Log: true},
		{Name: "discount", Kind: KindFloat, Lower: 0, Upper: 1},
		{Name: "likelihood_ratio_clipping", Kind: KindFloat, Lower: 0, Upper: 1},
		{Name: "entropy_regularization", Kind: KindFloat, Lower: 0, Upper: 1},
	}}
}

func (b *Cartpole) FidelitySpace() *Space {
	return &Space{Params: []Parameter{
		{Name: "budget", Kind: KindInt, Lower: 1, Upper: cartpoleMaxBudget, Default: cartpoleMaxBudget},
	}}
}

func (b *Cartpole) Objective(ctx context.Context, cfg Configuration, fidelity Configuration, opts Options) (Result, error) {
	if err := b.Space().Validate(cfg); err != nil {
		return Result{}, err
	}
	fidelity, err := b.FidelitySpace().ValidateFidelity(fidelity)
	if err != nil {
		return Result{}, err
	}

	budget := fidelity.Int("budget")
	rng := newRNG(opts)
	base := b.surface(cfg)

	// Each repetition is one noisy training run. Averaging more runs
	// shrinks the variance of the reported episode count.
	var total, cost float64
	episodes := make([]float64, 0, budget)
	for i := 0; i < budget; i++ {
		ep := base * math.Exp(rng.NormFloat64()*0.15)
		ep = clamp(ep, 20, 3000)
		episodes = append(episodes, ep)
		total += ep
		cost += ep * 0.12
	}
	mean := total / float64(budget)

	return Result{
		FunctionValue: mean,
		Cost:          cost,
		Info: map[string]any{
			"all_runs": episodes,
			"fidelity": fidelity,
		},
	}, nil
}

// ObjectiveTest evaluates at the full repetition budget.
func (b *Cartpole) ObjectiveTest(ctx context.Context, cfg Configuration, fidelity Configuration, opts Options) (Result, error) {
	return b.Objective(ctx, cfg, nil, opts)
}

func (b *Cartpole) Meta() map[string]any {
	return map[string]any{
		"name":      "CartpoleReduced",
		"surrogate": true,
		"references": []string{
			"John Schulman, Filip Wolski, Prafulla Dhariwal, Alec Radford, Oleg Klimov",
			"Proximal Policy Optimization Algorithms",
			"https://arxiv.org/abs/1707.06347",
		},
	}
}

// surface is the noise-free expected episode count. PPO on cartpole
// wants a moderate learning rate, a discount close to but below one,
// clipping near 0.2 and a touch of entropy bonus.
func (b *Cartpole) surface(cfg Configuration) float64 {
	lr := math.Log10(cfg.Float("learning_rate"))
	discount := cfg.Float("discount")
	clip := cfg.Float("likelihood_ratio_clipping")
	entropy := cfg.Float("entropy_regularization")
	batch := math.Log2(float64(cfg.Int("batch_size")))

	score := (lr+3)*(lr+3)*18 +
		(discount-0.98)*(discount-0.98)*4000 +
		(clip-0.2)*(clip-0.2)*900 +
		(entropy-0.05)*(entropy-0.05)*400 +
		(batch-6)*(batch-6)*12

	return clamp(110+score, 20, 3000)
}
