package main

import (
	"fmt"
	"os"

	"bizflow/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, "bizd:", err)
		os.Exit(1)
	}
	if err := application.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "bizd:", err)
		os.Exit(1)
	}
}
