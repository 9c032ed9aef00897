package ilqr

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/trajopt/ilqr/plan"
)

const priorTolerance = 1e-3

// Solver holds a tree of plan nodes: a single shared root at t=0 and, per
// branch hypothesis, a chain of nodes for t=1..T. It implements the
// backward sweep, line-searched forward pass and outer convergence loop
// (C5-C7), plus the branch-probability interface (C8) a hypothesis filter
// drives between Solve calls.
type Solver struct {
	n, m int

	branches []*branch
	root     *plan.Node
	T        int
}

// New constructs a solver over the given branch hypotheses. It fails with
// ErrBadPrior if the probabilities do not sum to 1 (tolerance 1e-3) or any
// is negative. The plan tree itself is built lazily on the first Solve
// call, since the horizon T is a Solve parameter.
func New(specs []BranchSpec, stateDim, controlDim int) (*Solver, error) {
	if err := validatePrior(probabilitiesOf(specs)); err != nil {
		return nil, err
	}
	branches := make([]*branch, len(specs))
	for i, spec := range specs {
		branches[i] = &branch{spec: spec, probability: spec.Probability}
	}
	return &Solver{n: stateDim, m: controlDim, branches: branches}, nil
}

func probabilitiesOf(specs []BranchSpec) []float64 {
	p := make([]float64, len(specs))
	for i, s := range specs {
		p[i] = s.Probability
	}
	return p
}

func validatePrior(p []float64) error {
	if len(p) == 0 {
		return fmt.Errorf("%w: no branches given", ErrBadPrior)
	}
	var sum float64
	for _, pi := range p {
		if pi < 0 {
			return fmt.Errorf("%w: negative probability %v", ErrBadPrior, pi)
		}
		sum += pi
	}
	if math.Abs(sum-1) > priorTolerance {
		return fmt.Errorf("%w: probabilities sum to %v, want 1 +/- %v", ErrBadPrior, sum, priorTolerance)
	}
	return nil
}

// Timesteps returns the horizon of the most recent Solve call.
func (s *Solver) Timesteps() int { return s.T }

// SetBranchProbabilities re-weights the plan tree between solver
// invocations, as driven by an external hypothesis filter (C8). It fails
// with ErrBadPrior under the same preconditions as New.
func (s *Solver) SetBranchProbabilities(p []float64) error {
	if len(p) != len(s.branches) {
		return fmt.Errorf("%w: got %d probabilities, want %d", ErrBadPrior, len(p), len(s.branches))
	}
	if err := validatePrior(p); err != nil {
		return err
	}
	for i, b := range s.branches {
		b.probability = p[i]
		for _, node := range b.nodes {
			node.SetProbability(p[i])
		}
	}
	return nil
}

func (s *Solver) rebuild(T int) {
	s.T = T
	s.root = plan.NewRoot(mat.NewVecDense(s.n, nil), mat.NewVecDense(s.m, nil))
	for i, b := range s.branches {
		s.branches[i] = newBranch(b.spec, s.n, s.m, T)
		s.branches[i].probability = b.probability
	}
}

// ComputeControl returns the control branch i applies at (x,t) with
// line-search step alpha, per compute_control_stepsize. t=0 uses the
// shared root policy common to every branch.
func (s *Solver) ComputeControl(branchIdx int, x *mat.VecDense, t int, alpha float64) (*mat.VecDense, error) {
	if t < 0 || t >= s.T {
		return nil, fmt.Errorf("ilqr: timestep %d out of range [0,%d)", t, s.T)
	}
	if branchIdx < 0 || branchIdx >= len(s.branches) {
		return nil, fmt.Errorf("ilqr: branch index %d out of range", branchIdx)
	}
	if t == 0 {
		return s.root.ComputeControl(x, alpha), nil
	}
	return s.branches[branchIdx].nodeAt(t).ComputeControl(x, alpha), nil
}

// ForwardPass simulates branch i from x0 under the current feedback law
// at step size alpha, returning its states, controls and accumulated
// cost.
func (s *Solver) ForwardPass(branchIdx int, x0 *mat.VecDense, alpha float64) (states, controls []*mat.VecDense, cost float64, err error) {
	if branchIdx < 0 || branchIdx >= len(s.branches) {
		return nil, nil, 0, fmt.Errorf("ilqr: branch index %d out of range", branchIdx)
	}
	return s.rollout(s.branches[branchIdx], x0, alpha)
}

// SolveOptions are the outer-loop parameters of Solve; zero value is not
// meaningful on its own, use DefaultSolveOptions.
type SolveOptions struct {
	Mu        float64 // initial Levenberg-Marquardt damping
	MaxIters  int
	Verbose   bool // strict mode: ErrNotConverged is a failure, not a warning
	ConvRatio float64
	Alpha0    float64
}

// DefaultSolveOptions matches the solve() defaults: mu=0, max_iters=1000,
// verbose=false, conv_ratio=1e-4, alpha0=1.0.
func DefaultSolveOptions() SolveOptions {
	return SolveOptions{Mu: 0, MaxIters: 1000, Verbose: false, ConvRatio: 1e-4, Alpha0: 1.0}
}

const (
	muDampUp      = 10
	muFloor       = 0
	muInitialBump = 1e-6
	muCap         = 1e6
	alphaMin      = 1.0 / 1024.0
)

// Result is the outcome of a Solve call: the converged (or best-found)
// expected cost, the iteration count and damping at termination, and
// whether the convergence ratio was actually met.
type Result struct {
	Cost      float64
	Iters     int
	Mu        float64
	Converged bool
}

// Solve runs the outer convergence loop: alternating backward sweep and
// line-searched forward pass until the cost ratio converges or the
// iteration cap is reached (C7). It mutates every node's expansion point
// in place and returns the final expected cost.
//
// State machine per iteration: Expand -> Backward -> ForwardTry(alpha) ->
// Accept | Shrink | Damp. A NonPSDControlHessian backup failure or a
// line search that exhausts every alpha down to alphaMin both escalate mu
// and retry the backward sweep without re-expanding or advancing the
// iteration count (Damp). Exhausting mu beyond muCap is StuckAtLocalMin.
func (s *Solver) Solve(T int, x0, uNominal *mat.VecDense, opts SolveOptions) (Result, error) {
	if T != s.T || s.root == nil {
		s.rebuild(T)
	}

	s.root.SetExpansionPoint(x0, uNominal)
	for _, b := range s.branches {
		b.seedNominal(x0, uNominal)
	}

	jbar, err := s.nominalCost()
	if err != nil {
		return Result{}, err
	}

	mu := opts.Mu

	for iter := 0; iter < opts.MaxIters; iter++ {
		if err := s.expand(); err != nil {
			return Result{}, err
		}

		var ratio float64
		for {
			jNew, results, ok, escalated, err := s.backwardAndLineSearch(x0, jbar, mu, opts.Alpha0)
			if err != nil {
				return Result{}, err
			}
			if !ok {
				mu = escalated
				if mu > muCap {
					return Result{Cost: jbar, Iters: iter, Mu: mu}, ErrStuckAtLocalMin
				}
				continue // Damp: same expansion, no iteration advance
			}

			s.commit(x0, results)
			ratio = math.Abs(jbar-jNew) / math.Max(math.Abs(jbar), 1e-10)
			jbar = jNew
			mu = math.Max(muFloor, mu/muDampUp)
			break
		}

		if ratio < opts.ConvRatio {
			return Result{Cost: jbar, Iters: iter + 1, Mu: mu, Converged: true}, nil
		}
	}

	if opts.Verbose {
		return Result{Cost: jbar, Iters: opts.MaxIters, Mu: mu}, ErrNotConverged
	}
	return Result{Cost: jbar, Iters: opts.MaxIters, Mu: mu}, nil
}

// backwardAndLineSearch runs one backward sweep at damping mu and, if it
// succeeds, one backtracking line search. ok is false whenever mu should
// be escalated (a non-PD control Hessian, or no accepting alpha); the
// caller retries with the escalated value without re-expanding.
func (s *Solver) backwardAndLineSearch(x0 *mat.VecDense, jbar, mu, alpha0 float64) (jNew float64, results []rolloutResult, ok bool, escalated float64, err error) {
	if err := s.backwardSweep(mu); err != nil {
		if errors.Is(err, plan.ErrNonPSDControlHessian) {
			return 0, nil, false, escalateMu(mu), nil
		}
		return 0, nil, false, 0, err
	}

	for alpha := alpha0; alpha >= alphaMin; alpha /= 2 {
		candidate, results, err := s.expectedCost(x0, alpha)
		if err != nil {
			return 0, nil, false, 0, err
		}
		if candidate < jbar {
			return candidate, results, true, mu, nil
		}
	}
	return 0, nil, false, escalateMu(mu), nil
}

func escalateMu(mu float64) float64 {
	if mu == 0 {
		return muInitialBump
	}
	return mu * muDampUp
}

// commit installs an accepted forward pass as the new nominal trajectory
// on every node, including the shared root's control (identical across
// branches, since it depends only on the shared root state).
func (s *Solver) commit(x0 *mat.VecDense, results []rolloutResult) {
	s.root.SetExpansionPoint(x0, results[0].controls[0])
	for bi, b := range s.branches {
		res := results[bi]
		for idx, node := range b.nodes {
			t := idx + 1
			if node.IsFinal() {
				node.SetExpansionPoint(res.states[t], nil)
			} else {
				node.SetExpansionPoint(res.states[t], res.controls[t])
			}
		}
	}
}

func (s *Solver) expand() error {
	for _, b := range s.branches {
		for _, node := range b.nodes {
			if err := node.RefreshExpansion(); err != nil {
				return err
			}
		}
	}
	return s.refreshRoot()
}
