package main

import (
	"os"

	"github.com/MrSnakeDoc/keep/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
