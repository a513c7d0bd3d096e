package main

import (
	"os"

	"buildinfo/internal/cli"
)

func main() {
	exitCode := cli.Run(os.Args[1:], os.Environ(), os.Stdout, os.Stderr)
	os.Exit(exitCode)
}
