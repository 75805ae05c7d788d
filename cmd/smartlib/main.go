package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/smartlib/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "smartlib:", err)
		os.Exit(1)
	}
}
