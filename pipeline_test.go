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
	"errors"
	"strings"
	"testing"
)

func TestRunEnsembleWorkers(t *testing.T) {
	var means []*Grid
	for _, workers := range []int{1, 4} {
		cfg := testSamplerConfig(t)
		cfg.Samples = 13
		cfg.Workers = workers
		s, err := Setup(cfg, testSamplerInputs(t, 6, 6, 6, 6, 5), testLogger())
		if err != nil {
			t.Fatal(err)
		}
		agg := NewAggregator(s.Geometry, true)
		var order []int
		err = s.RunEnsemble(context.Background(), agg, func(smp *Sample) error {
			order = append(order, smp.Index)
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		for i, o := range order {
			if o != i {
				t.Fatalf("workers %d: draws were handled in order %v", workers, order)
			}
		}
		if agg.N() != cfg.Samples {
			t.Errorf("workers %d: have %d samples, want %d", workers, agg.N(), cfg.Samples)
		}
		stats, err := agg.Finalize(cfg.Percentiles)
		if err != nil {
			t.Fatal(err)
		}
		means = append(means, stats.Mean)
	}
	compareGrids(t, means[1], means[0], 0)
}

func TestRunEnsembleCancel(t *testing.T) {
	s, err := Setup(testSamplerConfig(t), testSamplerInputs(t, 5, 5, 5, 5, 5), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.RunEnsemble(ctx, NewAggregator(s.Geometry, false), nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("have error %v, want %v", err, context.Canceled)
	}
}

func TestRunEnsembleHandlerError(t *testing.T) {
	s, err := Setup(testSamplerConfig(t), testSamplerInputs(t, 5, 5, 5, 5, 5), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	stop := errors.New("stop")
	err = s.RunEnsemble(context.Background(), NewAggregator(s.Geometry, false), func(smp *Sample) error {
		if smp.Index == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Errorf("have error %v, want %v", err, stop)
	}
}

func TestEstimate(t *testing.T) {
	cfg := testSamplerConfig(t)
	cfg.Percentiles = []float64{0.1, 0.5, 0.9}
	// The z-score field varies from cell to cell so that no zone is
	// degenerate.
	var err error
	cfg.ZScore, err = ParseLookupTable(strings.NewReader("0 -1\n1 1\n"), true)
	if err != nil {
		t.Fatal(err)
	}
	in := EstimateInputs{
		SamplerInputs: SamplerInputs{
			DEMAverage:    testGrid(t, 1, 5, 10, 20, 30, 40, 45),
			DEMFloodplain: NewGridValue(testGeometry(1, 5), 0),
			LDD:           testGrid(t, 1, 5, 6, 6, 6, 6, 5),
		},
		Zones:     testGrid(t, 1, 5, 1, 1, 1, 2, 2),
		Reference: testReferenceTable(t, "1 100\n2 5\n"),
	}
	in.Mask = NewMaskValue(in.LDD.Geometry, true)
	in.Mask.Cells[0] = false

	e, err := Estimate(context.Background(), cfg, DefaultMargatConfig(), in, nil, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if e.Corrected.Degenerate != 0 {
		t.Errorf("have %d degenerate zones, want 0", e.Corrected.Degenerate)
	}
	if e.Stats.N != cfg.Samples {
		t.Errorf("have %d samples, want %d", e.Stats.N, cfg.Samples)
	}
	vars, err := e.OutputVariables()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"average", "variance", "standard_deviation",
		"percentile_10", "percentile_50", "percentile_90", "average_corrected"}
	if len(vars) != len(want) {
		t.Fatalf("have %d variables, want %d", len(vars), len(want))
	}
	for i, v := range vars {
		if v.Name != want[i] {
			t.Errorf("variable %d: have %s, want %s", i, v.Name, want[i])
		}
		if v.Units != "m" {
			t.Errorf("%s: have units %s, want m", v.Name, v.Units)
		}
		if !IsNoData(v.Grid.At(0, 0)) {
			t.Errorf("%s: the cell outside the landmask should be undefined", v.Name)
		}
	}
	corrected := vars[len(vars)-1].Grid
	for c := 1; c < 5; c++ {
		v := corrected.At(0, c)
		if IsNoData(v) || !(v > 0) {
			t.Errorf("corrected cell %d: have %g, want a positive thickness", c, v)
		}
	}
	for _, c := range []int{3, 4} {
		if v := corrected.At(0, c); v > 5*(1+testTolerance) {
			t.Errorf("corrected cell %d: %g is larger than the reference thickness 5", c, v)
		}
	}
}

func TestEstimateInsufficientSamples(t *testing.T) {
	cfg := testSamplerConfig(t)
	cfg.Samples = 1
	_, err := Estimate(context.Background(), cfg, DefaultMargatConfig(),
		EstimateInputs{SamplerInputs: testSamplerInputs(t, 5, 5, 5, 5, 5)}, nil, testLogger())
	var ise *InsufficientSampleError
	if !errors.As(err, &ise) {
		t.Errorf("have error %v, want an InsufficientSampleError", err)
	}
}
