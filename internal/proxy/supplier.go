package proxy

import (
	"context"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

// EndpointSupplier manages a pool of content endpoints. The current endpoint stays
// pinned until a caller reports it broken with Rotate.
type EndpointSupplier interface {
	Current() string
	Rotate() string
	Len() int
}

type endpointSupplier struct {
	endpoints []string
	current   int
	mutex     sync.Mutex
}

// NewEndpointSupplier creates a supplier over endpoints as given, without probing them.
func NewEndpointSupplier(endpoints []string) EndpointSupplier {
	return &endpointSupplier{endpoints: normalize(endpoints)}
}

// NewValidatedEndpointSupplier probes every endpoint in parallel and keeps the ones
// that answer. When none answer, all endpoints are kept so startup does not fail on
// a transient outage.
func NewValidatedEndpointSupplier(ctx context.Context, endpoints []string, probePath, apiKey string) EndpointSupplier {
	endpoints = normalize(endpoints)
	if len(endpoints) <= 1 {
		return &endpointSupplier{endpoints: endpoints}
	}

	validCh := make(chan int, len(endpoints))

	log.Infof("🔄 Testing %d content endpoints in parallel...", len(endpoints))

	semaphore := make(chan struct{}, 8)

	var wg sync.WaitGroup

	for i, endpoint := range endpoints {
		wg.Add(1)

		go func(index int, endpoint string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if isEndpointValid(ctx, endpoint+probePath, apiKey) {
				validCh <- index
				log.Infof("✅ Endpoint %s is reachable", endpoint)
			} else {
				log.Infof("❌ Endpoint %s is not reachable, skipping", endpoint)
			}
		}(i, endpoint)
	}

	wg.Wait()
	close(validCh)

	keep := make([]bool, len(endpoints))
	count := 0
	for i := range validCh {
		keep[i] = true
		count++
	}

	if count == 0 {
		log.Warnf("⚠️ No content endpoint answered the probe, keeping all %d", len(endpoints))
		return &endpointSupplier{endpoints: endpoints}
	}

	valid := make([]string, 0, count)
	for i, ok := range keep {
		if ok {
			valid = append(valid, endpoints[i])
		}
	}

	log.Infof("✅ EndpointSupplier initialized with %d working endpoints out of %d tested", len(valid), len(endpoints))

	return &endpointSupplier{endpoints: valid}
}

// Current returns the pinned endpoint, or "" when the pool is empty.
func (p *endpointSupplier) Current() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if len(p.endpoints) == 0 {
		return ""
	}
	return p.endpoints[p.current]
}

// Rotate advances to the next endpoint in round-robin fashion and returns it.
func (p *endpointSupplier) Rotate() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if len(p.endpoints) == 0 {
		return ""
	}

	p.current = (p.current + 1) % len(p.endpoints)
	return p.endpoints[p.current]
}

func (p *endpointSupplier) Len() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.endpoints)
}

func normalize(endpoints []string) []string {
	out := make([]string, 0, len(endpoints))
	for _, e := range endpoints {
		e = strings.TrimRight(strings.TrimSpace(e), "/")
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

// isEndpointValid tests if an endpoint answers the probe URL without a server error.
func isEndpointValid(ctx context.Context, probeURL, apiKey string) bool {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(0)
	defer client.Close()

	req := client.R().SetContext(ctx)
	if apiKey != "" {
		req.SetHeader("apikey", apiKey)
	}

	resp, err := req.Get(probeURL)
	if err != nil {
		log.Infof("Endpoint probe failed for %s: %v", probeURL, err)
		return false
	}

	if resp.StatusCode() >= 500 {
		log.Infof("Endpoint probe failed for %s with status: %s", probeURL, resp.Status())
		return false
	}

	return true
}
