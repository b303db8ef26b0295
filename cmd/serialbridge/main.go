package main

import (
	"os"

	"serialbridge/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
