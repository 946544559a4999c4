package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mamadbah2/dairysense/internal/bootstrap"
)

func main() {
	if err := newRootCmd(os.Stdout, bootstrap.OpenStore, time.Now).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
