package main

import (
	"os"

	"clinic/cmd/clinicctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
