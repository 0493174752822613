// Command genfixtures writes the deterministic sample artifacts into a
// results layout. With -accept the freshly written artifacts are also
// promoted to golden files, which seeds a new layout in one step.
//
// Usage:
//
//	go run ./cmd/genfixtures -results-dir results -seq 10
//	go run ./cmd/genfixtures -results-dir results -seq 10 -accept
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/couchcryptid/cdms-golden-verifier/internal/adapter/csvfile"
	"github.com/couchcryptid/cdms-golden-verifier/internal/domain"
	"github.com/couchcryptid/cdms-golden-verifier/internal/fixture"
	"github.com/couchcryptid/cdms-golden-verifier/internal/sample"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	resultsDir := flag.String("results-dir", "results", "results root holding actual/ and expected/")
	seq := flag.Int("seq", 1, "sequence number embedded in artifact names")
	accept := flag.Bool("accept", false, "also promote the written artifacts to expected")
	flag.Parse()

	if *seq < 0 || *seq > 999 {
		flag.Usage()
		return fmt.Errorf("-seq must be in 0..999, got %d", *seq)
	}

	layout := domain.NewLayout(*resultsDir)
	names, err := sample.WriteAll(csvfile.New(csvfile.DefaultOptions()), layout.ActualDir, *seq)
	if err != nil {
		return fmt.Errorf("write samples: %w", err)
	}
	for _, name := range names {
		log.Printf("wrote %s", name)
	}

	if !*accept {
		return nil
	}
	for _, name := range names {
		path, err := fixture.Promote(layout, name)
		if err != nil {
			return fmt.Errorf("promote %s: %w", name, err)
		}
		log.Printf("accepted %s", path)
	}
	return nil
}
