package main

import (
	"github.com/brightlyhq/brightly/internal/adapters/driving/cli"
)

func main() {
	cli.Execute()
}
