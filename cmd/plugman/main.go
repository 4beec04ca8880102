package main

import (
	"os"

	"github.com/roemer/plugman/internal/app/plugman"
)

func main() {
	os.Exit(plugman.Execute())
}
