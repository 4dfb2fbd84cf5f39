// Package main is the entry point for the ctrneat application. Command-line
// parsing and experiment execution are managed by the cmd package.
package main

import (
	"ctrneat/cmd"
)

func main() {
	cmd.Execute()
}
