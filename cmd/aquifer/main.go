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

// Command aquifer is a command-line interface for the aquifer thickness model.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/edwinkost/aquifer-thickness/aqutil"
)

func main() {
	var commands int
	for _, arg := range os.Args { // Count the number of supplied commands.
		if !strings.HasPrefix(arg, "-") {
			commands++
		}
	}
	if commands == 1 { // If only one command was supplied, start the GUI server.
		aqutil.StartWebServer()
	}

	// If more than one command was supplied, run in CLI mode.
	if err := aqutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
