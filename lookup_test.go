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
	"errors"
	"math"
	"strings"
	"testing"
)

const rangeTable = `# average thickness
<,-1>    10
[-1,0>   20
[0,1]    30
<1,>     40
5        50
`

func TestLookup(t *testing.T) {
	table, err := ParseLookupTable(strings.NewReader(rangeTable), false)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		key, want float64
	}{
		{key: -3, want: 10},
		{key: -1, want: 20},
		{key: -0.5, want: 20},
		{key: 0, want: 30},
		{key: 1, want: 30},
		{key: 1.0001, want: 40},
		{key: 5, want: 40}, // The first matching row wins.
	}
	for _, test := range tests {
		have, err := table.Lookup(test.key)
		if err != nil {
			t.Errorf("key %g: %v", test.key, err)
			continue
		}
		if have != test.want {
			t.Errorf("key %g: have %g, want %g", test.key, have, test.want)
		}
	}
}

func TestLookupMissing(t *testing.T) {
	table, err := ParseLookupTable(strings.NewReader("[0,1> 1\n2 5\n"), false)
	if err != nil {
		t.Fatal(err)
	}
	table.Name = "test"
	_, err = table.Lookup(1)
	var mk *MissingLookupKeyError
	if !errors.As(err, &mk) {
		t.Fatalf("have error %v, want a MissingLookupKeyError", err)
	}
	if mk.Key != 1 || mk.Table != "test" {
		t.Errorf("have %+v", mk)
	}

	keys := testGrid(t, 1, 4, 0.5, 1, nd, 2)
	g, missing := table.LookupGrid(keys)
	if missing != 1 {
		t.Errorf("missing: have %d, want 1", missing)
	}
	compareGrids(t, g, testGrid(t, 1, 4, 1, nd, nd, 5), testTolerance)
}

func TestLookupLinear(t *testing.T) {
	table, err := ParseLookupTable(strings.NewReader("1 10\n0 0\n3 50\n"), true)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		key, want float64
	}{
		{key: 0, want: 0},
		{key: 0.5, want: 5},
		{key: 1, want: 10},
		{key: 2, want: 30},
		{key: 3, want: 50},
		{key: -1, want: math.NaN()},
		{key: 4, want: math.NaN()},
	}
	for _, test := range tests {
		have, err := table.Lookup(test.key)
		if math.IsNaN(test.want) {
			if err == nil {
				t.Errorf("key %g: want an error", test.key)
			}
			continue
		}
		if err != nil {
			t.Fatal(err)
		}
		if different(have, test.want, testTolerance) {
			t.Errorf("key %g: have %g, want %g", test.key, have, test.want)
		}
	}
}

func TestParseLookupTableErrors(t *testing.T) {
	for name, text := range map[string]string{
		"empty":          "# nothing\n\n",
		"columns":        "1 2 3\n",
		"value":          "1 x\n",
		"range":          "[1,2 5\n",
		"inverted range": "[3,1] 5\n",
		"linear range":   "[0,1] 5\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseLookupTable(strings.NewReader(text), name == "linear range"); err == nil {
				t.Errorf("%q should not parse", text)
			}
		})
	}
}

func TestPercentile(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	tests := []struct {
		p, want float64
	}{
		{p: 0, want: 1},
		{p: 0.025, want: 1.1},
		{p: 0.5, want: 3},
		{p: 0.9, want: 4.6},
		{p: 0.975, want: 4.9},
		{p: 1, want: 5},
	}
	for _, test := range tests {
		if have := percentile(test.p, x); different(have, test.want, testTolerance) {
			t.Errorf("p=%g: have %g, want %g", test.p, have, test.want)
		}
	}
	if have := percentile(0.3, []float64{7}); have != 7 {
		t.Errorf("single value: have %g, want 7", have)
	}
	if !math.IsNaN(percentile(0.5, nil)) {
		t.Error("percentile of nothing should be NaN")
	}
	if s := sortedCopy([]float64{3, 1, 2}); s[0] != 1 || s[2] != 3 {
		t.Errorf("sorted copy: have %v", s)
	}
}
