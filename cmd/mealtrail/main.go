package main

import (
	"os"

	"github.com/mealtrail/mealtrail/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
