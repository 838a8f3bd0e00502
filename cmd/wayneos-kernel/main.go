package main

import (
	"os"

	"github.com/WoodPyle/wayneos-vm-app/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
