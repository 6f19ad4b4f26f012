// SPDX-License-Identifier: MPL-2.0

// Command modus compiles Modusfiles into container build plans.
package main

import cmd "github.com/mayhemheroes/modus/cmd/modus"

func main() {
	cmd.Execute()
}
