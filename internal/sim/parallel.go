package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Job is one named simulator of an ensemble. Each job needs its own
// stepper and metric instances.
type Job struct {
	Name string
	Sim  *Simulator
}

// Ensemble runs several independent simulators with the same config
// concurrently, for example one per defuzzification strategy.
type Ensemble struct {
	jobs []Job
}

func NewEnsemble(jobs ...Job) *Ensemble {
	return &Ensemble{jobs: jobs}
}

// Run returns the results of every job that completed. A failed job is left
// out of the map and its error is joined into the returned error.
func (e *Ensemble) Run(ctx context.Context, cfg Config) (map[string]*Result, error) {
	results := make([]*Result, len(e.jobs))
	errs := make([]error, len(e.jobs))

	var wg sync.WaitGroup
	for i, job := range e.jobs {
		wg.Add(1)
		go func(idx int, job Job) {
			defer wg.Done()
			res, err := job.Sim.Run(ctx, cfg)
			if err != nil {
				err = fmt.Errorf("%s: %w", job.Name, err)
			}
			results[idx], errs[idx] = res, err
		}(i, job)
	}

	wg.Wait()

	out := make(map[string]*Result, len(e.jobs))
	for i, job := range e.jobs {
		if errs[i] == nil {
			out[job.Name] = results[i]
		}
	}
	return out, errors.Join(errs...)
}
