package main

import (
	"os"

	"github.com/CyanTarantula/trend-pulse/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
