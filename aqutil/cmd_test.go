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

package aqutil

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ctessum/cdf"
	"github.com/edwinkost/aquifer-thickness"
	"github.com/edwinkost/aquifer-thickness/internal/hash"
)

var testGeometry = aquifer.GridGeometry{X0: 0, Y0: 2, CellSize: 1, Rows: 2, Cols: 5}

func testGrid(t *testing.T, row ...float64) *aquifer.Grid {
	t.Helper()
	g, err := aquifer.NewGridFromSlice(testGeometry, append(append([]float64{}, row...), row...))
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func writeFile(t *testing.T, path, contents string) string {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// writeInputs writes a small test case to dir and configures Cfg to use it.
func writeInputs(t *testing.T, dir string) {
	t.Helper()
	inputs := filepath.Join(dir, "inputs.nc")
	err := aquifer.WriteNetCDF(inputs, testGeometry, []aquifer.OutputVariable{
		{Name: "dem_average", Units: "m", Grid: testGrid(t, 10, 20, 30, 40, 45)},
		{Name: "dem_floodplain", Units: "m", Grid: testGrid(t, 0, 0, 0, 0, 0)},
		{Name: "lddsound", Units: "1", Grid: testGrid(t, 6, 6, 6, 6, 5)},
		{Name: "zones", Units: "1", Grid: testGrid(t, 1, 1, 1, 2, 2)},
		{Name: "kSatAquifer", Units: "m/day", Grid: testGrid(t, 1, 2, 3, 4, 5)},
		{Name: "specificYield", Units: "1", Grid: testGrid(t, 0.1, 0.1, 0.2, 0.2, 0.3)},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range map[string]interface{}{
		"LogFile":                 "",
		"ArcDegree":               false,
		"DEMAverage.File":         inputs,
		"DEMFloodplain.File":      inputs,
		"LDD.File":                inputs,
		"AverageThicknessTable":   writeFile(t, filepath.Join(dir, "davg.txt"), "<,0> 10\n[0,> 30\n"),
		"ZScoreTable":             writeFile(t, filepath.Join(dir, "zscore.txt"), "0 -1\n1 1\n"),
		"ZScoreTableLinear":       true,
		"MonteCarlo.Samples":      10,
		"MonteCarlo.Seed":         1,
		"MonteCarlo.Workers":      2,
		"MonteCarlo.Percentiles":  []float64{0.1, 0.5, 0.9},
		"Aquifers.File":           inputs,
		"Aquifers.Attribute":      "zones",
		"Aquifers.ReferenceTable": writeFile(t, filepath.Join(dir, "margat.txt"), "1 100\n2 5\n"),
		"Report.PropertiesFile":   inputs,
	} {
		Cfg.Set(k, v)
	}
}

func readOutput(t *testing.T, path, variable string) *aquifer.Grid {
	t.Helper()
	g, err := aquifer.ReadNetCDF(path, variable, testGeometry)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func globalAttribute(t *testing.T, path, name string) string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	nc, err := cdf.Open(f)
	if err != nil {
		t.Fatal(err)
	}
	v, _ := nc.Header.GetAttribute("", name).(string)
	return v
}

func TestVersion(t *testing.T) {
	b := new(bytes.Buffer)
	Root.SetOut(b)
	defer Root.SetOut(nil)
	Root.SetArgs([]string{"version"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	if want := "aquifer v" + aquifer.Version; !strings.Contains(b.String(), want) {
		t.Errorf("have %q, want %q", b.String(), want)
	}
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	writeInputs(t, dir)
	out := new(bytes.Buffer)
	Root.SetOut(out)
	defer Root.SetOut(nil)

	estimate := filepath.Join(dir, "thickness.nc")
	t.Run("run", func(t *testing.T) {
		Cfg.Set("OutputFile", estimate)
		Cfg.Set("SaveQuickLook", true)
		Root.SetArgs([]string{"run"})
		if err := Root.Execute(); err != nil {
			t.Fatal(err)
		}
		for _, v := range []string{"average", "variance", "standard_deviation", "percentile_10",
			"percentile_50", "percentile_90", "average_corrected"} {
			g := readOutput(t, estimate, v)
			if n, _, _, _ := g.Stats(); n != testGeometry.Len() {
				t.Errorf("%s: have %d defined cells, want %d", v, n, testGeometry.Len())
			}
		}
		corrected := readOutput(t, estimate, "average_corrected")
		for r := 0; r < testGeometry.Rows; r++ {
			for c := 3; c < 5; c++ {
				if v := corrected.At(r, c); !(v > 0) || v > 5*(1+1e-6) {
					t.Errorf("cell (%d,%d) of zone 2: have %g, want between 0 and 5", r, c, v)
				}
			}
		}
		for _, f := range []string{"thickness.log", "thickness_average.png", "thickness_average_corrected.png"} {
			if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
				t.Error(err)
			}
		}
		if !strings.Contains(out.String(), "finished aquifer thickness estimate") {
			t.Error("the log should be written to the command output")
		}
		want, err := hash.Files(filepath.Join(dir, "inputs.nc"), filepath.Join(dir, "margat.txt"))
		if err != nil {
			t.Fatal(err)
		}
		if have := globalAttribute(t, estimate, "input_hash"); have != want {
			t.Errorf("input_hash: have %q, want %q", have, want)
		}
	})

	t.Run("margat", func(t *testing.T) {
		corrected := filepath.Join(dir, "corrected.nc")
		Cfg.Set("OutputFile", corrected)
		Cfg.Set("SaveQuickLook", false)
		Cfg.Set("Margat.InputFile", estimate)
		Root.SetArgs([]string{"margat"})
		out.Reset()
		if err := Root.Execute(); err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(filepath.Join(dir, "corrected.toml")); err != nil {
			t.Error(err)
		}
		if n := strings.Count(out.String(), "finished Margat correction"); n != 1 {
			t.Errorf("the correction summary was logged %d times, want 1", n)
		}
		have := readOutput(t, corrected, "average_corrected")
		want := readOutput(t, estimate, "average_corrected")
		for i, w := range want.Data.Elements {
			h := have.Data.Elements[i]
			if math.Abs(h-w) > 1e-4*math.Abs(w) {
				t.Errorf("cell %d: have %g, want %g", i, h, w)
			}
		}
	})

	t.Run("report", func(t *testing.T) {
		report := filepath.Join(dir, "properties.nc")
		Cfg.Set("OutputFile", report)
		Cfg.Set("Report.ThicknessFile", estimate)
		Root.SetArgs([]string{"report"})
		if err := Root.Execute(); err != nil {
			t.Fatal(err)
		}
		k := readOutput(t, report, "saturated_conductivity")
		if v := k.At(1, 2); math.Abs(v-3) > 1e-6 {
			t.Errorf("saturated conductivity: have %g, want 3", v)
		}
		th := readOutput(t, report, "thickness")
		want := readOutput(t, estimate, "average_corrected")
		if v, w := th.At(0, 4), want.At(0, 4); math.Abs(v-w) > 1e-6*w {
			t.Errorf("thickness: have %g, want %g", v, w)
		}
	})

	t.Run("quicklook", func(t *testing.T) {
		png := filepath.Join(dir, "quicklook.png")
		Cfg.Set("QuickLook.File", estimate)
		Cfg.Set("QuickLook.Variable", "standard_deviation")
		Cfg.Set("QuickLook.Output", png)
		Cfg.Set("QuickLook.Log", false)
		Root.SetArgs([]string{"quicklook"})
		if err := Root.Execute(); err != nil {
			t.Fatal(err)
		}
		if fi, err := os.Stat(png); err != nil || fi.Size() == 0 {
			t.Errorf("quick look not written: %v", err)
		}
	})

	t.Run("insufficient samples", func(t *testing.T) {
		Cfg.Set("OutputFile", filepath.Join(dir, "fail.nc"))
		Cfg.Set("MonteCarlo.Samples", 1)
		defer Cfg.Set("MonteCarlo.Samples", 10)
		Root.SetArgs([]string{"montecarlo"})
		if err := Root.Execute(); err == nil {
			t.Error("a single sample should fail")
		}
	})
}
