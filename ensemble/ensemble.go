package ensemble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-oslo/decompose"
	"github.com/cwbudde/algo-oslo/normalize"
	"github.com/cwbudde/algo-oslo/spectra"
)

// ErrNoReplicas indicates a non-positive replica count.
var ErrNoReplicas = errors.New("ensemble: replica count must be positive")

// Replica records the outcome of one pipeline run. Exactly one of Solution
// and Err is meaningful.
type Replica struct {
	Index    int
	Solution *normalize.Solution
	Err      error
}

// Band holds per-bin aggregate statistics over the successful replicas.
type Band struct {
	Cal  spectra.Calibration
	Mean []float64
	// Percentiles are the requested quantile levels; Quantiles[p][bin] is
	// the corresponding per-bin value.
	Percentiles []float64
	Quantiles   [][]float64
}

// Ensemble is the aggregate result of a Driver run.
type Ensemble struct {
	// Replicas lists every run in index order, failures included.
	Replicas []Replica
	// Rho and T are the aggregate bands over successful replicas; nil when
	// no replica succeeded.
	Rho *Band
	T   *Band
	// SuccessFraction is successes / total.
	SuccessFraction float64
	// StdRaw and StdProcessed hold the per-cell standard deviation of the
	// perturbed and preprocessed matrices across replicas.
	StdRaw       *spectra.Matrix
	StdProcessed *spectra.Matrix
}

// Driver runs the perturb -> preprocess -> decompose -> normalize pipeline
// over many replicas.
type Driver struct {
	cfg     Config
	anchors normalize.Anchors
}

// New builds a Driver for the given anchors.
func New(anchors normalize.Anchors, opts ...Option) *Driver {
	return &Driver{
		cfg:     ApplyOptions(opts...),
		anchors: anchors,
	}
}

// Run executes the pipeline for the requested number of replicas and
// aggregates the outcomes. Per-replica failures are recorded, not
// propagated; Run itself fails only on invalid input or cancellation.
// Cancellation is checked between replicas.
func (d *Driver) Run(ctx context.Context, base *spectra.Matrix, replicas int) (*Ensemble, error) {
	if replicas <= 0 {
		return nil, ErrNoReplicas
	}

	if err := base.Validate(); err != nil {
		return nil, err
	}

	logger := d.cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	results := make([]Replica, replicas)

	var (
		rawStd  = newWelford()
		procStd = newWelford()
		wg      sync.WaitGroup
	)

	jobs := make(chan int)

	for w := 0; w < d.cfg.Workers; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range jobs {
				results[i] = d.runReplica(base, i, rawStd, procStd)

				if results[i].Err != nil {
					logger.Warn("replica failed", "index", i, "err", results[i].Err)
				} else {
					logger.Debug("replica done", "index", i)
				}
			}
		}()
	}

dispatch:
	for i := 0; i < replicas; i++ {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
		}
	}

	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return d.aggregate(results, rawStd, procStd), nil
}

// runReplica executes one full pipeline pass.
func (d *Driver) runReplica(base *spectra.Matrix, index int, rawStd, procStd *welford) Replica {
	raw, err := d.generateRaw(base, index)
	if err != nil {
		return Replica{Index: index, Err: err}
	}

	rawStd.add(raw)

	processed, err := d.preprocess(raw, index)
	if err != nil {
		return Replica{Index: index, Err: err}
	}

	procStd.add(processed)

	mask := d.cfg.Mask
	if mask == nil {
		mask = spectra.FullMask(processed.Rows, processed.Cols)
	}

	dec, err := decompose.Decompose(processed, mask, d.cfg.DecomposeOptions...)
	if err != nil {
		return Replica{Index: index, Err: err}
	}

	sol, err := normalize.Normalize(dec.Rho, dec.T, d.anchors, d.cfg.NormalizeOptions...)
	if err != nil {
		return Replica{Index: index, Err: err}
	}

	return Replica{Index: index, Solution: sol}
}

// generateRaw draws the perturbed replica, or loads it from the store when
// one is configured and Regenerate is off.
func (d *Driver) generateRaw(base *spectra.Matrix, index int) (*spectra.Matrix, error) {
	if d.cfg.Store != nil && !d.cfg.Regenerate {
		if m, ok, err := d.cfg.Store.Get("raw", index); err != nil {
			return nil, err
		} else if ok {
			return m, nil
		}
	}

	src := rand.NewPCG(d.cfg.Seed, uint64(index))
	raw := d.cfg.Strategy.Perturb(base, src)

	if d.cfg.Store != nil {
		if err := d.cfg.Store.Put("raw", index, raw); err != nil {
			return nil, err
		}
	}

	return raw, nil
}

// preprocess applies the unfolding and first-generation collaborators,
// using the store as a stage cache when available.
func (d *Driver) preprocess(raw *spectra.Matrix, index int) (*spectra.Matrix, error) {
	if d.cfg.Unfold == nil && d.cfg.FirstGen == nil {
		return raw, nil
	}

	if d.cfg.Store != nil && !d.cfg.Regenerate {
		if m, ok, err := d.cfg.Store.Get("fg", index); err != nil {
			return nil, err
		} else if ok {
			return m, nil
		}
	}

	out := raw

	for _, stage := range []Stage{d.cfg.Unfold, d.cfg.FirstGen} {
		if stage == nil {
			continue
		}

		next, err := stage.Apply(index, out)
		if err != nil {
			return nil, fmt.Errorf("ensemble: preprocessing: %w", err)
		}

		out = next
	}

	if d.cfg.Store != nil {
		if err := d.cfg.Store.Put("fg", index, out); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// aggregate computes the success fraction, the per-bin bands over the
// successful replicas, and the per-cell ensemble standard deviations.
func (d *Driver) aggregate(results []Replica, rawStd, procStd *welford) *Ensemble {
	ens := &Ensemble{
		Replicas:     results,
		StdRaw:       rawStd.std(),
		StdProcessed: procStd.std(),
	}

	var ok []*normalize.Solution

	for i := range results {
		if results[i].Err == nil && results[i].Solution != nil {
			ok = append(ok, results[i].Solution)
		}
	}

	ens.SuccessFraction = float64(len(ok)) / float64(len(results))

	if len(ok) > 0 {
		ens.Rho = d.band(ok, func(s *normalize.Solution) *spectra.Vector { return s.Rho })
		ens.T = d.band(ok, func(s *normalize.Solution) *spectra.Vector { return s.T })
	}

	return ens
}

// band builds one aggregate band from the selected vector of every
// successful solution. Solutions whose grid disagrees with the first one
// are skipped.
func (d *Driver) band(ok []*normalize.Solution, pick func(*normalize.Solution) *spectra.Vector) *Band {
	first := pick(ok[0])
	n := first.Len()

	b := &Band{
		Cal:         first.Cal,
		Mean:        make([]float64, n),
		Percentiles: d.cfg.Percentiles,
		Quantiles:   make([][]float64, len(d.cfg.Percentiles)),
	}
	for p := range b.Quantiles {
		b.Quantiles[p] = make([]float64, n)
	}

	col := make([]float64, 0, len(ok))

	for bin := 0; bin < n; bin++ {
		col = col[:0]

		for _, s := range ok {
			v := pick(s)
			if v.Len() != n {
				continue
			}

			col = append(col, v.Values[bin])
		}

		b.Mean[bin] = stat.Mean(col, nil)

		sort.Float64s(col)

		for p, q := range d.cfg.Percentiles {
			b.Quantiles[p][bin] = stat.Quantile(q, stat.Empirical, col, nil)
		}
	}

	return b
}

// welford accumulates per-cell mean and variance across replicas without
// holding the whole ensemble in memory.
type welford struct {
	mu    sync.Mutex
	count int
	mean  []float64
	m2    []float64
	shape [2]int
	ex    spectra.Calibration
	eg    spectra.Calibration
}

func newWelford() *welford {
	return &welford{}
}

// add folds one matrix into the accumulator. Matrices whose shape differs
// from the first seen are ignored; preprocessing stages that reshape leave
// the std grids covering only the common case.
func (w *welford) add(m *spectra.Matrix) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.count == 0 {
		w.shape = [2]int{m.Rows, m.Cols}
		w.ex = m.Ex
		w.eg = m.Eg
		w.mean = make([]float64, len(m.Values))
		w.m2 = make([]float64, len(m.Values))
	}

	if w.shape != [2]int{m.Rows, m.Cols} {
		return
	}

	w.count++

	for i, v := range m.Values {
		delta := v - w.mean[i]
		w.mean[i] += delta / float64(w.count)
		w.m2[i] += delta * (v - w.mean[i])
	}
}

// std returns the per-cell standard deviation matrix, or nil when fewer
// than two matrices were accumulated.
func (w *welford) std() *spectra.Matrix {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.count < 2 {
		return nil
	}

	out := spectra.NewMatrix(w.shape[0], w.shape[1], w.ex, w.eg)
	for i, m2 := range w.m2 {
		out.Values[i] = math.Sqrt(m2 / float64(w.count-1))
	}

	return out
}
