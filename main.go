// Package main is the entry point for the sqlexplorer CLI.
package main

import (
	"sqlexplorer/cli/cmd"
)

func main() {
	cmd.Execute()
}
