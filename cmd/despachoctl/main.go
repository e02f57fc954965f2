// Package main is the entry point for despachoctl.
package main

import (
	"os"

	"github.com/MrJamesThe3rd/despacho/cmd/despachoctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
