/*
Copyright © 2014 the aquifer-thickness authors.
This file is part of aquifer-thickness.

aquifer-thickness is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

aquifer-thickness is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with aquifer-thickness.  If not, see <http://www.gnu.org/licenses/>.
*/

package aquifer

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SampleHandler receives each realization, in draw order, after it has
// been added to the ensemble. It may be nil.
type SampleHandler func(*Sample) error

// RunEnsemble calculates draws 0 through Config.Samples-1 of s
// concurrently and adds them to agg in draw order, so agg is only
// touched by the calling goroutine and the result does not depend on
// scheduling. It stops at the first error or when ctx is cancelled.
func (s *SamplerState) RunEnsemble(ctx context.Context, agg *Aggregator, h SampleHandler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	n := s.Config.Samples
	nprocs := s.Config.Workers
	if nprocs < 1 {
		nprocs = runtime.GOMAXPROCS(0)
	}
	if nprocs > n {
		nprocs = n
	}

	type result struct {
		sample *Sample
		err    error
	}
	results := make(chan result, nprocs)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			for i := pp; i < n; i += nprocs {
				if ctx.Err() != nil {
					return
				}
				smp, err := s.Draw(i)
				select {
				case results <- result{sample: smp, err: err}:
				case <-ctx.Done():
					return
				}
				if err != nil {
					return
				}
			}
		}(pp)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	log := s.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	start := time.Now()
	pending := make(map[int]*Sample)
	next := 0
	for r := range results {
		if r.err != nil {
			return r.err
		}
		pending[r.sample.Index] = r.sample
		for smp, ok := pending[next]; ok; smp, ok = pending[next] {
			delete(pending, next)
			if err := agg.Add(smp.Thickness); err != nil {
				return err
			}
			if h != nil {
				if err := h(smp); err != nil {
					return err
				}
			}
			log.WithFields(logrus.Fields{
				"draw": smp.Index + 1, "of": n, "z": smp.Z, "davg": smp.Davg,
				"elapsed": time.Since(start).Round(time.Millisecond),
			}).Debug("finished Monte Carlo draw")
			next++
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.Clamps.Log(log)
	return nil
}
