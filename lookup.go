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
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// lookupKey matches a single value or a range of values.
type lookupKey struct {
	lo, hi         float64
	loIncl, hiIncl bool
}

func (k lookupKey) matches(v float64) bool {
	if v < k.lo || (v == k.lo && !k.loIncl) {
		return false
	}
	if v > k.hi || (v == k.hi && !k.hiIncl) {
		return false
	}
	return true
}

func (k lookupKey) exact() bool { return k.lo == k.hi && k.loIncl && k.hiIncl }

type lookupRow struct {
	key   lookupKey
	value float64
}

// LookupTable maps keys to values. Each row of the table holds a key
// column and a value column. A key is either a number or a range such as
// "[0,10>" where square brackets include the bound, angle brackets exclude
// it, and an empty bound is unbounded.
type LookupTable struct {
	// Name identifies the table in log messages and errors.
	Name string

	// Linear specifies that values are interpolated linearly between
	// the two nearest numeric keys instead of requiring a match.
	Linear bool

	rows []lookupRow
}

// ReadLookupTable reads a lookup table from the text file at path.
func ReadLookupTable(path string, linear bool) (*LookupTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("aquifer: opening lookup table: %w", err)
	}
	defer f.Close()
	t, err := ParseLookupTable(f, linear)
	if err != nil {
		return nil, fmt.Errorf("%w (file %s)", err, path)
	}
	t.Name = path
	return t, nil
}

// ParseLookupTable parses a lookup table. Blank lines and lines starting
// with '#' are skipped.
func ParseLookupTable(r io.Reader, linear bool) (*LookupTable, error) {
	t := &LookupTable{Linear: linear}
	s := bufio.NewScanner(r)
	line := 0
	for s.Scan() {
		line++
		text := strings.TrimSpace(s.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("aquifer: lookup table line %d: need a key and a value but have %d columns", line, len(fields))
		}
		k, err := parseLookupKey(fields[0])
		if err != nil {
			return nil, fmt.Errorf("aquifer: lookup table line %d: %w", line, err)
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("aquifer: lookup table line %d: %w", line, err)
		}
		if linear && !k.exact() {
			return nil, fmt.Errorf("aquifer: lookup table line %d: interpolated tables need numeric keys but have %q", line, fields[0])
		}
		t.rows = append(t.rows, lookupRow{key: k, value: v})
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("aquifer: reading lookup table: %w", err)
	}
	if len(t.rows) == 0 {
		return nil, fmt.Errorf("aquifer: lookup table is empty")
	}
	if linear {
		sort.SliceStable(t.rows, func(i, j int) bool { return t.rows[i].key.lo < t.rows[j].key.lo })
	}
	return t, nil
}

func parseLookupKey(s string) (lookupKey, error) {
	if s[0] != '[' && s[0] != '<' {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return lookupKey{}, err
		}
		return lookupKey{lo: v, hi: v, loIncl: true, hiIncl: true}, nil
	}
	end := s[len(s)-1]
	if len(s) < 3 || (end != ']' && end != '>') {
		return lookupKey{}, fmt.Errorf("invalid range %q", s)
	}
	parts := strings.Split(s[1:len(s)-1], ",")
	if len(parts) != 2 {
		return lookupKey{}, fmt.Errorf("invalid range %q", s)
	}
	k := lookupKey{
		lo: math.Inf(-1), hi: math.Inf(1),
		loIncl: s[0] == '[', hiIncl: end == ']',
	}
	var err error
	if parts[0] != "" {
		if k.lo, err = strconv.ParseFloat(parts[0], 64); err != nil {
			return lookupKey{}, err
		}
	}
	if parts[1] != "" {
		if k.hi, err = strconv.ParseFloat(parts[1], 64); err != nil {
			return lookupKey{}, err
		}
	}
	if k.lo > k.hi {
		return lookupKey{}, fmt.Errorf("invalid range %q: lower bound is larger than upper bound", s)
	}
	return k, nil
}

// Lookup returns the value for key. If the table is not Linear, the value
// of the first row whose key matches is returned. A key that matches no
// row returns a *MissingLookupKeyError.
func (t *LookupTable) Lookup(key float64) (float64, error) {
	if IsNoData(key) {
		return NoData, &MissingLookupKeyError{Table: t.Name, Key: key}
	}
	if t.Linear {
		return t.interpolate(key)
	}
	for _, r := range t.rows {
		if r.key.matches(key) {
			return r.value, nil
		}
	}
	return NoData, &MissingLookupKeyError{Table: t.Name, Key: key}
}

func (t *LookupTable) interpolate(key float64) (float64, error) {
	i := sort.Search(len(t.rows), func(i int) bool { return t.rows[i].key.lo >= key })
	switch {
	case i < len(t.rows) && t.rows[i].key.lo == key:
		return t.rows[i].value, nil
	case i == 0 || i == len(t.rows):
		return NoData, &MissingLookupKeyError{Table: t.Name, Key: key}
	}
	a, b := t.rows[i-1], t.rows[i]
	f := (key - a.key.lo) / (b.key.lo - a.key.lo)
	return a.value + f*(b.value-a.value), nil
}

// LookupGrid applies the table to every defined cell of keys. Cells whose
// key is not in the table become undefined; their number is returned.
func (t *LookupTable) LookupGrid(keys *Grid) (*Grid, int) {
	o := NewGrid(keys.Geometry)
	var missing int
	for i, k := range keys.Data.Elements {
		if IsNoData(k) {
			continue
		}
		v, err := t.Lookup(k)
		if err != nil {
			missing++
			continue
		}
		o.Data.Elements[i] = v
	}
	return o, missing
}
