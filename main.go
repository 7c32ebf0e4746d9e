// The main package for the sitefix executable.
package main

import (
	"github.com/JakeFAU/sitefix/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
