package main

import "zonecrawl/internal/cli"

// Populated by the build via -ldflags.
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.Execute()
}
