package main

import (
	"fmt"
	"os"

	"github.com/opsforge/opsforge-backend/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer a.Log.Sync()

	if err := a.Run(); err != nil {
		a.Log.Fatal("HTTP server exited", "error", err)
	}
}
