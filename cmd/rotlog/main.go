package main

import "github.com/mcdonaldj/rotlog/internal/cli"

// version is set via ldflags at build time: -ldflags "-X main.version=x.y.z"
var version = "dev"

func main() {
	// No arguments opens the history browser; kong defaults to the ui command
	c := cli.New(version)
	c.Run()
}
