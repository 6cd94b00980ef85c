package main

import (
	"os"

	"github.com/distfarm/distfarm/pkg/shim"
)

func main() {
	os.Exit(shim.Run(os.Args[1:], os.Stdout))
}
