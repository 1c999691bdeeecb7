package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the menu server")
	slugs := flag.String("slugs", "the-blue-lagoon", "Comma-separated menu slugs to request round-robin")
	query := flag.String("query", "", "Extra query string, e.g. lang=sq&currency=ALL")
	concurrency := flag.Int("c", 10, "Number of concurrent workers")
	duration := flag.Duration("d", 30*time.Second, "Duration of the load test")
	rps := flag.Int("rps", 200, "Requests per second limit")
	flag.Parse()

	var targets []string
	for _, s := range strings.Split(*slugs, ",") {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		u := strings.TrimRight(*baseURL, "/") + "/menu/" + url.PathEscape(s)
		if *query != "" {
			u += "?" + *query
		}
		targets = append(targets, u)
	}
	if len(targets) == 0 {
		log.Fatal("no slugs given")
	}

	log.Printf("Starting load test on %d menu(s) at %s", len(targets), *baseURL)
	log.Printf("Concurrency: %d, Duration: %s, RPS: %d", *concurrency, *duration, *rps)

	var wg sync.WaitGroup
	var next, errorCount atomic.Int64
	var mu sync.Mutex
	statuses := make(map[int]int64)
	var latencies []time.Duration

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(*rps), 50) // Allow bursts up to 50

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{
				Timeout: 15 * time.Second,
			}

			for {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				target := targets[int(next.Add(1))%len(targets)]

				req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
				if err != nil {
					continue // Should not happen
				}
				req.Header.Set("X-Request-ID", uuid.NewString())

				start := time.Now()
				resp, err := client.Do(req)
				if err != nil {
					if ctx.Err() == nil {
						errorCount.Add(1)
					}
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				elapsed := time.Since(start)

				mu.Lock()
				statuses[resp.StatusCode]++
				latencies = append(latencies, elapsed)
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	var total int64
	codes := make([]int, 0, len(statuses))
	for code, n := range statuses {
		codes = append(codes, code)
		total += n
	}
	sort.Ints(codes)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	log.Println("Load test finished.")
	log.Printf("Total Responses: %d", total)
	for _, code := range codes {
		log.Printf("  %d %s: %d", code, http.StatusText(code), statuses[code])
	}
	log.Printf("Transport Errors: %d", errorCount.Load())
	log.Printf("Actual RPS: %.2f", float64(total)/duration.Seconds())
	if n := len(latencies); n > 0 {
		log.Printf("Latency p50: %s, p95: %s, p99: %s", latencies[n/2], latencies[n*95/100], latencies[n*99/100])
	}
}
