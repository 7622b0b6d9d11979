/*
Copyright © 2025 the HeatRec authors.
This file is part of HeatRec.

HeatRec is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

HeatRec is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with HeatRec.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command heatrec is a command-line interface for the HeatRec compressor
// heat-recovery design tool.
package main

import (
	"fmt"
	"os"

	"github.com/thermalmodel/heatrec/heatrecutil"
)

func main() {
	if err := heatrecutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
