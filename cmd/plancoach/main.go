// Package main is the single-binary entrypoint for PlanCoach.
package main

import "github.com/plancoach/plancoach/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
