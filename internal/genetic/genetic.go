// Package genetic implements a population-based search over placement
// order and rotation, used by the nesting driver when the deterministic
// BLF packer alone is not asked to be the final word. The chromosome is
// single-shape: fitness is the number of parts a simplified BLF run
// manages to place.
package genetic

import (
	"math/rand"
	"sort"

	"github.com/piwi3910/nestforge/internal/blf"
	"github.com/piwi3910/nestforge/internal/boolean"
	"github.com/piwi3910/nestforge/internal/model"
	"github.com/piwi3910/nestforge/internal/nfp"
)

// gene carries the rotation assigned to one chromosome position.
type gene struct {
	rotation float64
}

// chromosome is (order, genes, fitness): order is a permutation over
// 0..N-1 that travels with the rotation gene at the same position through
// crossover, preserving which original "slot" a rotation came from;
// genes[i] is the rotation used by the fitness evaluator's iteration i.
// order itself doesn't reorder anything for a single-shape packer — it
// exists purely so Order Crossover has identities to work with.
type chromosome struct {
	order   []int
	genes   []gene
	fitness int
}

// Optimizer runs the genetic search for one design/sheet pair. It owns a
// single boolean engine, NFP generator and Placer for its whole run: these
// are not shared-mutation-safe, so one Optimizer must not be used from
// more than one goroutine.
type Optimizer struct {
	config model.GAConfig
	design model.Design
	sheet  model.BoundingBox
	rng    *rand.Rand
	n      int
	placer *blf.Placer
}

// NewOptimizer returns an Optimizer seeded deterministically from seed.
func NewOptimizer(design model.Design, sheet model.BoundingBox, config model.GAConfig, seed int64) *Optimizer {
	n := blf.EstimateMaxPlacements(design, sheet)
	engine := boolean.New()
	gen := nfp.NewGenerator(engine)
	cfg := model.DefaultConfig()
	cfg.Algorithm = model.AlgorithmNFPGA
	cfg.GA = config
	return &Optimizer{
		config: config,
		design: design,
		sheet:  sheet,
		rng:    rand.New(rand.NewSource(seed)),
		n:      n,
		placer: blf.NewPlacer(engine, gen, cfg),
	}
}

// Run executes the generational loop and returns the placement/rendered
// result of the best-ever chromosome found.
// progress, if non-nil, is called once per generation as a suspension
// point; returning false stops the search early.
func (o *Optimizer) Run(progress func() bool) blf.Result {
	if o.n <= 0 || len(o.config.RotationAngles) == 0 {
		return blf.Result{}
	}

	population := o.initPopulation()
	for i := range population {
		population[i].fitness = o.evaluate(population[i])
	}

	var bestEver chromosome
	bestEver = population[0]

	for gen := 0; gen < o.config.Generations; gen++ {
		if progress != nil && !progress() {
			break
		}

		sort.SliceStable(population, func(i, j int) bool {
			return population[i].fitness > population[j].fitness
		})
		if population[0].fitness > bestEver.fitness {
			bestEver = population[0]
		}

		newPop := make([]chromosome, 0, o.config.PopulationSize)
		eliteCount := o.config.EliteCount
		if eliteCount > len(population) {
			eliteCount = len(population)
		}
		for i := 0; i < eliteCount; i++ {
			newPop = append(newPop, copyChromosome(population[i]))
		}

		for len(newPop) < o.config.PopulationSize {
			parent1 := o.tournamentSelect(population)
			parent2 := o.tournamentSelect(population)

			var child1, child2 chromosome
			if o.rng.Float64() < o.config.CrossoverRate {
				child1, child2 = o.orderCrossover(parent1, parent2)
			} else {
				child1, child2 = copyChromosome(parent1), copyChromosome(parent2)
			}
			o.mutate(&child1)
			o.mutate(&child2)
			child1.fitness = o.evaluate(child1)
			newPop = append(newPop, child1)
			if len(newPop) < o.config.PopulationSize {
				child2.fitness = o.evaluate(child2)
				newPop = append(newPop, child2)
			}
		}
		population = newPop
	}

	for _, c := range population {
		if c.fitness > bestEver.fitness {
			bestEver = c
		}
	}

	return o.decode(bestEver, nil)
}

// initPopulation builds populationSize chromosomes with uniform random
// permutations (Fisher-Yates, via math/rand.Perm) and uniform random
// rotations from the allowed set.
func (o *Optimizer) initPopulation() []chromosome {
	population := make([]chromosome, o.config.PopulationSize)
	rotations := o.config.RotationAngles

	for i := range population {
		order := o.rng.Perm(o.n)
		genes := make([]gene, o.n)
		for j := 0; j < o.n; j++ {
			genes[j] = gene{rotation: rotations[o.rng.Intn(len(rotations))]}
		}
		population[i] = chromosome{order: order, genes: genes}
	}
	return population
}

// evaluate decodes c via the simplified BLF fitness evaluator and returns
// the number of placements it committed.
func (o *Optimizer) evaluate(c chromosome) int {
	result := o.decode(c, nil)
	return len(result.Placements)
}

// decode runs the simplified BLF packer (blf.PackWithRotations) using c's
// rotation sequence: on iteration i it uses rotation = genes[i mod
// len].rotation.
func (o *Optimizer) decode(c chromosome, progress func() bool) blf.Result {
	rotations := make([]float64, len(c.genes))
	for i, g := range c.genes {
		rotations[i] = g.rotation
	}
	return o.placer.PackWithRotations(o.design, o.sheet, rotations, progress)
}

// tournamentSelect picks the best of tournamentSize random draws.
func (o *Optimizer) tournamentSelect(population []chromosome) chromosome {
	best := population[o.rng.Intn(len(population))]
	size := o.config.TournamentSize
	if size < 1 {
		size = 1
	}
	for i := 1; i < size; i++ {
		candidate := population[o.rng.Intn(len(population))]
		if candidate.fitness > best.fitness {
			best = candidate
		}
	}
	return copyChromosome(best)
}

// orderCrossover implements Order Crossover (OX) as described in spec.md
// §4.6: pick two cut points i1 <= i2; copy p1.order[i1..i2] (and the
// corresponding rotation genes) into the child at the same positions; fill
// the remaining slots, starting at (i2+1) mod len and scanning the other
// parent's order from (i2+1) mod len, inserting each value not already
// present together with the rotation gene from the source parent's
// position. child2 is the symmetric case with parents swapped.
func (o *Optimizer) orderCrossover(p1, p2 chromosome) (chromosome, chromosome) {
	n := len(p1.order)
	if n <= 2 {
		return copyChromosome(p1), copyChromosome(p2)
	}

	i1 := o.rng.Intn(n)
	i2 := o.rng.Intn(n)
	if i1 > i2 {
		i1, i2 = i2, i1
	}

	return oxChild(p1, p2, i1, i2), oxChild(p2, p1, i1, i2)
}

// oxChild builds one Order Crossover child: primary contributes the
// [i1,i2] segment verbatim, donor fills the remainder in its own order,
// skipping any order value the segment already used. Using set membership
// (not a sparse positional scan) is the spec.md §9 fix for the
// quadratic/incorrect teacher-style scan over a partially-filled array.
func oxChild(primary, donor chromosome, i1, i2 int) chromosome {
	n := len(primary.order)
	child := chromosome{order: make([]int, n), genes: make([]gene, n)}

	used := make(map[int]bool, n)
	for i := i1; i <= i2; i++ {
		child.order[i] = primary.order[i]
		child.genes[i] = primary.genes[i]
		used[primary.order[i]] = true
	}

	childIdx := (i2 + 1) % n
	for k := 0; k < n; k++ {
		srcIdx := ((i2+1)%n + k) % n
		val := donor.order[srcIdx]
		if used[val] {
			continue
		}
		child.order[childIdx] = val
		child.genes[childIdx] = donor.genes[srcIdx]
		used[val] = true
		childIdx = (childIdx + 1) % n
	}
	return child
}

// mutate applies spec.md §4.6's two mutation kinds: with probability
// mutationRate, swap two random positions (both order and rotation gene
// move together); independently, for each gene, with probability
// mutationRate, replace its rotation with a fresh random pick.
func (o *Optimizer) mutate(c *chromosome) {
	n := len(c.order)
	if n < 2 {
		return
	}

	if o.rng.Float64() < o.config.MutationRate {
		i := o.rng.Intn(n)
		j := o.rng.Intn(n)
		c.order[i], c.order[j] = c.order[j], c.order[i]
		c.genes[i], c.genes[j] = c.genes[j], c.genes[i]
	}

	rotations := o.config.RotationAngles
	for i := range c.genes {
		if o.rng.Float64() < o.config.MutationRate {
			c.genes[i].rotation = rotations[o.rng.Intn(len(rotations))]
		}
	}
}

func copyChromosome(c chromosome) chromosome {
	order := make([]int, len(c.order))
	copy(order, c.order)
	genes := make([]gene, len(c.genes))
	copy(genes, c.genes)
	return chromosome{order: order, genes: genes, fitness: c.fitness}
}
