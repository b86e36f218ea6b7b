package main

import (
	"os"

	"github.com/dcu/soapinvoker/cmd/soapcall/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
