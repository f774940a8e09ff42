// Package main provides a load generator that exercises the aggregator's
// publish path with a mix of unique and duplicate events, then reports
// whether the aggregator's own /stats counters agree with what was sent.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
)

const (
	totalEvents         = 5000
	duplicatePercentage = 0.20
	batchSize           = 100
	loadTestTopic       = "loadtest"
)

type publishEvent struct {
	Topic     string                 `json:"topic"`
	EventID   string                 `json:"event_id"` //nolint:tagliatelle
	Timestamp string                 `json:"timestamp"`
	Source    string                 `json:"source"`
	Payload   map[string]interface{} `json:"payload"`
}

type statsResponse struct {
	Received         int64    `json:"received"`
	UniqueProcessed  int      `json:"unique_processed"`  //nolint:tagliatelle
	DuplicateDropped int64    `json:"duplicate_dropped"` //nolint:tagliatelle
	Topics           []string `json:"topics"`
	Uptime           string   `json:"uptime"`
}

func main() {
	baseURL := os.Getenv("AGGREGATOR_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	client := &http.Client{Timeout: 5 * time.Second}

	if !waitForAggregator(client, baseURL) {
		log.Fatal("could not connect to aggregator, giving up")
	}

	runLoadTest(client, baseURL)
}

// waitForAggregator polls /stats a handful of times before giving up, in
// case the aggregator is still starting up.
func waitForAggregator(client *http.Client, baseURL string) bool {
	for attempt := 1; attempt <= 5; attempt++ {
		resp, err := client.Get(baseURL + "/stats")
		if err == nil {
			_ = resp.Body.Close()
			log.Print("connected to aggregator")

			return true
		}

		log.Printf("waiting for aggregator (attempt %d/5)", attempt)
		time.Sleep(3 * time.Second)
	}

	return false
}

func runLoadTest(client *http.Client, baseURL string) {
	log.Printf("--- load generator starting ---")
	log.Printf("target: %s", baseURL)
	log.Printf("sending %d events, %.0f%% duplicates", totalEvents, duplicatePercentage*100)

	numUnique := int(float64(totalEvents) * (1 - duplicatePercentage))
	numDuplicates := totalEvents - numUnique

	log.Printf("unique: %d, duplicates: %d", numUnique, numDuplicates)

	uniqueEvents := make([]publishEvent, numUnique)
	for i := range uniqueEvents {
		uniqueEvents[i] = generateEvent(loadTestTopic, uuid.NewString())
	}

	allEvents := make([]publishEvent, 0, totalEvents)
	allEvents = append(allEvents, uniqueEvents...)

	for i := 0; i < numDuplicates; i++ {
		allEvents = append(allEvents, uniqueEvents[rand.Intn(len(uniqueEvents))]) //nolint:gosec
	}

	rand.Shuffle(len(allEvents), func(i, j int) {
		allEvents[i], allEvents[j] = allEvents[j], allEvents[i]
	})

	statsBefore, err := fetchStats(client, baseURL)
	if err != nil {
		log.Fatalf("failed to reach aggregator at %s: %v", baseURL, err)
	}

	log.Printf("stats before -> unique: %d, duplicates: %d",
		statsBefore.UniqueProcessed, statsBefore.DuplicateDropped)

	result := make(chan bool, 3)
	for _, delay := range []time.Duration{5 * time.Second, 25 * time.Second, 60 * time.Second} {
		time.AfterFunc(delay, func() { result <- checkResponsiveness(client, baseURL) })
	}

	start := time.Now()
	sendInBatches(client, baseURL, allEvents)
	elapsed := time.Since(start)

	log.Printf("finished sending %d events in %s", totalEvents, elapsed)
	log.Print("waiting for consumer to drain")
	time.Sleep(5 * time.Second)

	statsAfter, err := fetchStats(client, baseURL)
	if err != nil {
		log.Fatalf("failed to fetch final stats: %v", err)
	}

	reportResults(statsBefore, statsAfter, numUnique, numDuplicates, result)
}

func generateEvent(topic, eventID string) publishEvent {
	return publishEvent{
		Topic:     topic,
		EventID:   eventID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Source:    "loadgen",
		Payload:   map[string]interface{}{"run_id": uuid.NewString()},
	}
}

func sendInBatches(client *http.Client, baseURL string, events []publishEvent) {
	sent := 0

	for start := 0; start < len(events); start += batchSize {
		end := start + batchSize
		if end > len(events) {
			end = len(events)
		}

		batch := events[start:end]

		body, err := json.Marshal(batch)
		if err != nil {
			log.Printf("failed to marshal batch: %v", err)
			continue
		}

		resp, err := client.Post(baseURL+"/publish", "application/json", bytes.NewReader(body))
		if err != nil {
			log.Printf("connection error sending batch: %v", err)
			time.Sleep(time.Second)

			continue
		}

		if resp.StatusCode != http.StatusOK {
			log.Printf("error sending batch: %d", resp.StatusCode)
		}

		_ = resp.Body.Close()

		sent += len(batch)
		log.Printf("sending events... %d/%d", sent, totalEvents)
	}
}

func fetchStats(client *http.Client, baseURL string) (statsResponse, error) {
	resp, err := client.Get(baseURL + "/stats")
	if err != nil {
		return statsResponse{}, err
	}

	defer func() { _ = resp.Body.Close() }()

	var stats statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return statsResponse{}, err
	}

	return stats, nil
}

// checkResponsiveness runs on a delay while the batch loop above is still
// sending, to confirm /stats keeps answering quickly under load.
func checkResponsiveness(client *http.Client, baseURL string) bool {
	start := time.Now()

	resp, err := client.Get(baseURL + "/stats")
	if err != nil {
		log.Printf("[responsiveness check] FAILED: %v", err)
		return false
	}

	defer func() { _ = resp.Body.Close() }()

	elapsed := time.Since(start)

	if resp.StatusCode != http.StatusOK {
		log.Printf("[responsiveness check] FAILED: /stats returned %d", resp.StatusCode)
		return false
	}

	log.Printf("[responsiveness check] OK: /stats answered in %s", elapsed)

	return true
}

func reportResults(before, after statsResponse, numUnique, numDuplicates int, result <-chan bool) {
	uniqueProcessed := after.UniqueProcessed - before.UniqueProcessed
	duplicatesDropped := after.DuplicateDropped - before.DuplicateDropped

	fmt.Println("\n--- load generator results ---")
	fmt.Printf("unique processed: %d (expected %d)\n", uniqueProcessed, numUnique)
	fmt.Printf("duplicates dropped: %d (expected %d)\n", duplicatesDropped, numDuplicates)

	if uniqueProcessed == numUnique {
		fmt.Println("unique count: PASS")
	} else {
		fmt.Printf("unique count: FAIL (got %d, expected %d)\n", uniqueProcessed, numUnique)
	}

	passed := 0
	checksRun := 0

drain:
	for {
		select {
		case ok := <-result:
			checksRun++
			if ok {
				passed++
			}
		default:
			break drain
		}
	}

	if checksRun == 0 {
		fmt.Println("responsiveness: no checks completed before reporting")
	} else {
		fmt.Printf("responsiveness: %d/%d checks passed\n", passed, checksRun)
	}

	fmt.Println("--- load generator finished ---")
}
