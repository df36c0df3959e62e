// Package main provides the contactbook CLI.
package main

import (
	"os"

	"github.com/mesh-intelligence/contactbook/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
