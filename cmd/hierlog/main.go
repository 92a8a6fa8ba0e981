package main

import (
	"os"

	"github.com/artcraftzone/hierlog/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
