package genetic

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/helixgate/helixgate/internal/redact"
)

const tournamentSize = 5

// Mutation noise is scaled to this fraction of the gene's bound range.
const mutationSigmaFraction = 0.1

// Individual is one candidate security configuration.
type Individual struct {
	Parameters Parameters
	Fitness    float64
}

// Options configures one optimizer instance.
type Options struct {
	PopulationSize int
	Generations    int
	MutationRate   float64
	CrossoverRate  float64
	// Bounds defaults to DefaultBounds when nil.
	Bounds map[string]Bounds
	// Seed fixes the random stream; zero seeds from the clock.
	Seed int64
}

// Optimizer runs a generational genetic search over the pipeline's tunable
// thresholds. It is CPU-bound and runs off the scan path; the result is
// handed to a Store for atomic publication.
type Optimizer struct {
	opts      Options
	bounds    map[string]Bounds
	geneOrder []string
	rng       *rand.Rand

	population []*Individual
	best       *Individual
	history    []float64
}

// New validates options eagerly, before any generation runs.
func New(opts Options) (*Optimizer, error) {
	if opts.PopulationSize < 2 {
		return nil, fmt.Errorf("population size must be at least 2, got %d", opts.PopulationSize)
	}
	if opts.Generations < 1 {
		return nil, fmt.Errorf("generations must be at least 1, got %d", opts.Generations)
	}
	if opts.MutationRate < 0 || opts.MutationRate > 1 {
		return nil, fmt.Errorf("mutation rate must be in [0,1], got %g", opts.MutationRate)
	}
	if opts.CrossoverRate < 0 || opts.CrossoverRate > 1 {
		return nil, fmt.Errorf("crossover rate must be in [0,1], got %g", opts.CrossoverRate)
	}

	bounds := opts.Bounds
	if bounds == nil {
		bounds = DefaultBounds()
	}
	// Single-point crossover needs a gene boundary to cut at.
	if len(bounds) < 2 {
		return nil, fmt.Errorf("bounds must define at least 2 genes, got %d", len(bounds))
	}
	for name, b := range bounds {
		if b.Min >= b.Max {
			return nil, fmt.Errorf("gene %q has empty bounds [%g,%g]", name, b.Min, b.Max)
		}
	}

	// Map iteration order is random; a fixed gene order keeps crossover and
	// replay deterministic for a given seed.
	order := make([]string, 0, len(bounds))
	for name := range bounds {
		order = append(order, name)
	}
	sort.Strings(order)

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Optimizer{
		opts:      opts,
		bounds:    bounds,
		geneOrder: order,
		rng:       rand.New(rand.NewSource(seed)),
	}, nil
}

// Optimize runs the full generational loop and returns the best parameters.
// Termination is a fixed generation count; there is no early exit on a
// convergence plateau.
func (o *Optimizer) Optimize() Parameters {
	o.initPopulation()
	o.evaluate()

	for gen := 0; gen < o.opts.Generations; gen++ {
		next := make([]*Individual, 0, o.opts.PopulationSize)

		// Elitism: the top 10% survives unchanged.
		elite := o.opts.PopulationSize / 10
		for i := 0; i < elite && i < len(o.population); i++ {
			next = append(next, o.population[i])
		}

		for len(next) < o.opts.PopulationSize {
			p1, p2 := o.tournament(), o.tournament()
			c1, c2 := o.crossover(p1, p2)
			o.mutate(c1)
			o.mutate(c2)
			next = append(next, c1, c2)
		}
		o.population = next[:o.opts.PopulationSize]

		o.evaluate()
		o.history = append(o.history, o.best.Fitness)

		if (gen+1)%10 == 0 {
			redact.Logf("genetic: generation %d/%d best fitness %.3f", gen+1, o.opts.Generations, o.best.Fitness)
		}
	}

	return o.best.Parameters.Clone()
}

// History returns the best fitness recorded after each generation. Because
// the best-ever individual is tracked across generations, the sequence is
// non-decreasing.
func (o *Optimizer) History() []float64 {
	out := make([]float64, len(o.history))
	copy(out, o.history)
	return out
}

// Best returns a copy of the best individual seen so far.
func (o *Optimizer) Best() Individual {
	if o.best == nil {
		return Individual{}
	}
	return Individual{Parameters: o.best.Parameters.Clone(), Fitness: o.best.Fitness}
}

func (o *Optimizer) initPopulation() {
	o.population = make([]*Individual, o.opts.PopulationSize)
	for i := range o.population {
		params := make(Parameters, len(o.geneOrder))
		for _, name := range o.geneOrder {
			b := o.bounds[name]
			params[name] = b.Min + o.rng.Float64()*(b.Max-b.Min)
		}
		o.population[i] = &Individual{Parameters: params}
	}
}

// evaluate scores the population, sorts it by fitness descending and updates
// the best-ever individual.
func (o *Optimizer) evaluate() {
	for _, ind := range o.population {
		ind.Fitness = fitness(ind.Parameters)
	}
	sort.SliceStable(o.population, func(i, j int) bool {
		return o.population[i].Fitness > o.population[j].Fitness
	})
	if o.best == nil || o.population[0].Fitness > o.best.Fitness {
		top := o.population[0]
		o.best = &Individual{Parameters: top.Parameters.Clone(), Fitness: top.Fitness}
	}
}

// fitness balances security strength against operational cost: higher
// thresholds, sensitivity and encryption strength score, a high rate-limit
// ceiling costs throughput, and high sensitivity costs false positives.
// Floored at zero.
func fitness(p Parameters) float64 {
	security := p[GeneAMLThreshold]*30 +
		p[GeneIDSSensitivity]*30 +
		p[GeneEncryptionLevel]*30 +
		(p[GeneRateLimit]/1000)*10

	performancePenalty := (p[GeneRateLimit] / 1000) * 5
	falsePositivePenalty := p[GeneIDSSensitivity] * 5

	f := security - performancePenalty - falsePositivePenalty
	if f < 0 {
		return 0
	}
	return f
}

func (o *Optimizer) tournament() *Individual {
	best := o.population[o.rng.Intn(len(o.population))]
	for i := 1; i < tournamentSize; i++ {
		c := o.population[o.rng.Intn(len(o.population))]
		if c.Fitness > best.Fitness {
			best = c
		}
	}
	return best
}

// crossover performs single-point crossover at a uniformly random gene
// boundary, skipped with probability 1−crossoverRate (parents pass through
// unchanged, as fresh copies).
func (o *Optimizer) crossover(p1, p2 *Individual) (*Individual, *Individual) {
	c1 := &Individual{Parameters: p1.Parameters.Clone()}
	c2 := &Individual{Parameters: p2.Parameters.Clone()}

	if o.rng.Float64() > o.opts.CrossoverRate {
		return c1, c2
	}

	point := 1 + o.rng.Intn(len(o.geneOrder)-1)
	for i := point; i < len(o.geneOrder); i++ {
		name := o.geneOrder[i]
		c1.Parameters[name], c2.Parameters[name] = c2.Parameters[name], c1.Parameters[name]
	}
	return c1, c2
}

// mutate applies independent per-gene Gaussian noise with probability
// mutationRate, clamped back into bounds.
func (o *Optimizer) mutate(ind *Individual) {
	for _, name := range o.geneOrder {
		if o.rng.Float64() >= o.opts.MutationRate {
			continue
		}
		b := o.bounds[name]
		v := ind.Parameters[name] + o.rng.NormFloat64()*(b.Max-b.Min)*mutationSigmaFraction
		if v < b.Min {
			v = b.Min
		}
		if v > b.Max {
			v = b.Max
		}
		ind.Parameters[name] = v
	}
}
