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

// Package hash creates keys that identify the configuration and inputs
// of a model run, so that output files can be traced back to them.
package hash

import (
	"fmt"
	"hash"
	"hash/fnv"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
)

// printer writes a deterministic representation of any value, with map
// keys sorted and no pointer addresses.
var printer = spew.ConfigState{
	Indent:                  " ",
	SortKeys:                true,
	DisableMethods:          true,
	SpewKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

func sum(h hash.Hash) string {
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Hash returns a hash key for the specified object. Objects holding the
// same values give the same key, including NaN values and maps.
func Hash(object interface{}) string {
	h := fnv.New128a()
	printer.Fprintf(h, "%#v", object)
	return sum(h)
}

// Files returns a hash key for the contents of the given files, in
// order. Empty paths are skipped.
func Files(paths ...string) (string, error) {
	h := fnv.New128a()
	for _, p := range paths {
		if p == "" {
			continue
		}
		f, err := os.Open(p)
		if err != nil {
			return "", fmt.Errorf("hash: %v", err)
		}
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", fmt.Errorf("hash: reading %s: %v", p, err)
		}
		h.Write([]byte{0}) // file separator
	}
	return sum(h), nil
}
