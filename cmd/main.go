package main

import (
	"log"

	"github.com/lablabs/countries-explorer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatalf("countries-explorer failed: %v", err)
	}
}
