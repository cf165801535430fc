package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/helixgate/helixgate/internal/config"
	"github.com/helixgate/helixgate/internal/pipeline"
)

func main() {
	cfgPath := flag.String("config", "", "path to config yaml (optional, defaults apply)")
	n := flag.Int("n", 200, "number of iterations")
	file := flag.String("file", "", "file to scan repeatedly (required)")
	flag.Parse()

	if *file == "" {
		log.Fatalf("file flag is required")
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	content, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("read %s: %v", *file, err)
	}

	p, err := pipeline.New(cfg, pipeline.Options{})
	if err != nil {
		log.Fatalf("pipeline setup failed: %v", err)
	}

	ctx := context.Background()
	name := filepath.Base(*file)

	// Warmup
	for i := 0; i < 5; i++ {
		if _, err := p.Scan(ctx, content, name, "", ""); err != nil {
			log.Fatalf("warmup scan failed: %v", err)
		}
	}

	if *n <= 0 {
		*n = 1
	}

	durations := make([]time.Duration, 0, *n)
	for i := 0; i < *n; i++ {
		start := time.Now()
		if _, err := p.Scan(ctx, content, name, "", ""); err != nil {
			log.Fatalf("scan failed: %v", err)
		}
		durations = append(durations, time.Since(start))
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	var total time.Duration
	for _, d := range durations {
		total += d
	}

	avg := float64(total.Microseconds()) / 1000.0 / float64(len(durations))
	p50 := float64(durations[len(durations)/2].Microseconds()) / 1000.0
	p95 := float64(durations[int(float64(len(durations))*0.95)].Microseconds()) / 1000.0

	fmt.Printf("bench: n=%d avg_ms=%.2f p50_ms=%.2f p95_ms=%.2f bytes=%d sensitivity=%s\n",
		len(durations),
		avg,
		p50,
		p95,
		len(content),
		cfg.Sensitivity,
	)
}
