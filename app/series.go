package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"namedprng/domain/core"
)

// SeriesRequest describes a walk of repeated draws over one type and
// purpose across a set of realizations.
type SeriesRequest struct {
	Type         core.TypeName
	Purpose      core.Purpose
	Realizations []core.Realization

	// Steps is how many filtered draws each realization collects
	Steps int

	// SkipSteps draws and discards this many unfiltered burn-in steps
	// before collection starts. Burn-in advances the stream by the full
	// slot span per step, exactly like a collected step.
	SkipSteps int

	Include []core.ParticleID
	Exclude []core.ParticleID
}

func (r SeriesRequest) validate() error {
	if len(r.Realizations) == 0 {
		return core.NewValidationError("realizations", "at least one realization is required")
	}
	seen := make(map[core.Realization]bool, len(r.Realizations))
	for _, id := range r.Realizations {
		if seen[id] {
			return core.NewValidationError("realizations", "realization ids must be unique")
		}
		seen[id] = true
	}
	if r.Steps < 1 {
		return core.NewValidationError("steps", "must be at least 1")
	}
	if r.SkipSteps < 0 {
		return core.NewValidationError("skip_steps", "cannot be negative")
	}
	return nil
}

// Series collects the walk one realization at a time. Every realization
// starts from a freshly reset stream, so the result depends only on the
// request, never on draws issued earlier in the manager's life. Result
// indexing is [realization][step][particle].
func (m *Manager) Series(req SeriesRequest) ([][][]float64, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	out := make([][][]float64, len(req.Realizations))
	for i, realization := range req.Realizations {
		block, err := m.seriesOne(realization, req)
		if err != nil {
			return nil, err
		}
		out[i] = block
	}
	return out, nil
}

// Sweep collects the same walk as Series with up to workers realizations
// in flight at once. Realizations address disjoint stream keys, so the
// result is identical to the sequential run.
func (m *Manager) Sweep(ctx context.Context, req SeriesRequest, workers int) ([][][]float64, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}

	out := make([][][]float64, len(req.Realizations))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, realization := range req.Realizations {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			block, err := m.seriesOne(realization, req)
			if err != nil {
				return err
			}
			out[i] = block
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Manager) seriesOne(realization core.Realization, req SeriesRequest) ([][]float64, error) {
	m.Reset(core.GroupKey{Realization: realization, Type: req.Type, Purpose: req.Purpose})

	for t := 0; t < req.SkipSteps; t++ {
		_, err := m.Draw(DrawRequest{Realization: realization, Type: req.Type, Purpose: req.Purpose})
		if err != nil {
			return nil, err
		}
	}

	block := make([][]float64, req.Steps)
	for t := 0; t < req.Steps; t++ {
		res, err := m.Draw(DrawRequest{
			Realization: realization,
			Type:        req.Type,
			Purpose:     req.Purpose,
			Include:     req.Include,
			Exclude:     req.Exclude,
		})
		if err != nil {
			return nil, err
		}
		block[t] = res.Values
	}
	return block, nil
}
