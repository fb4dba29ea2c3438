//go:build ignore

// Package main generates a synthetic application log for benchmarking.
// Usage: go run scripts/generate-log-corpus.go -lines 10000 -output testdata/bench/app.log
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

var (
	numLines   = flag.Int("lines", 10000, "Number of lines to generate")
	outputPath = flag.String("output", "testdata/bench/app.log", "Output file")
	seed       = flag.Int64("seed", 42, "Random seed for reproducibility")
)

// Each template is one cluster of the generated log, up to its variables.
var templates = []func(r *rand.Rand) string{
	func(r *rand.Rand) string {
		return fmt.Sprintf("INFO request %s completed in %dms status=%d",
			pick(r, "GET /api/users", "POST /api/orders", "GET /health"), r.Intn(900)+1, pick(r, 200, 201, 204))
	},
	func(r *rand.Rand) string {
		return fmt.Sprintf("WARN connection reset by peer %s:%d", ipv4(r), r.Intn(60000)+1024)
	},
	func(r *rand.Rand) string {
		return fmt.Sprintf("ERROR failed to open /var/lib/app/%s.db: permission denied", pick(r, "users", "orders", "cache"))
	},
	func(r *rand.Rand) string {
		return fmt.Sprintf("DEBUG cache hit key=%08x size=%d", r.Uint32(), r.Intn(1<<16))
	},
	func(r *rand.Rand) string {
		return fmt.Sprintf("INFO user %s logged in from %s", pick(r, "alice", "bob", "carol", "dave"), ipv4(r))
	},
	func(r *rand.Rand) string {
		return fmt.Sprintf("INFO load average %.2f %.2f %.2f", r.Float64()*4, r.Float64()*4, r.Float64()*4)
	},
}

func main() {
	flag.Parse()
	r := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(filepath.Dir(*outputPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}
	f, err := os.Create(*outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	ts := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	for i := 0; i < *numLines; i++ {
		ts = ts.Add(time.Duration(r.Intn(500)) * time.Millisecond)
		line := templates[r.Intn(len(templates))](r)
		fmt.Fprintf(w, "%s %s\n", ts.Format("2006-01-02T15:04:05.000Z"), line)
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d lines in %s\n", *numLines, *outputPath)
}

func pick[T any](r *rand.Rand, values ...T) T {
	return values[r.Intn(len(values))]
}

func ipv4(r *rand.Rand) string {
	return fmt.Sprintf("%d.%d.%d.%d", r.Intn(223)+1, r.Intn(256), r.Intn(256), r.Intn(254)+1)
}
