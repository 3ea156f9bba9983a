package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Simple Prometheus-style metrics for HTTP requests and analysis runs.
// This is intentionally minimal and in-memory only.

var (
	mu             sync.RWMutex
	requestsTotal  = make(map[reqKey]int64)
	latencyMsSum   = make(map[latKey]int64)
	latencyMsCount = make(map[latKey]int64)

	analysesTotal = make(map[analysisKey]int64)
	capturesTotal = make(map[captureKey]int64)

	cacheHitsTotal   = make(map[string]int64)
	cacheMissesTotal = make(map[string]int64)
)

type reqKey struct {
	Method string
	Path   string
	Status int
}

type latKey struct {
	Method string
	Path   string
}

type analysisKey struct {
	Kind     string
	Fallback string
}

type captureKey struct {
	Device  string
	Success string
}

// RecordRequest increments request counter and records latency.
func RecordRequest(method, path string, status int, latencyMs int64) {
	mu.Lock()
	defer mu.Unlock()

	rk := reqKey{Method: method, Path: path, Status: status}
	requestsTotal[rk]++

	lk := latKey{Method: method, Path: path}
	latencyMsSum[lk] += latencyMs
	latencyMsCount[lk]++
}

// RecordAnalysis counts one completed analysis of the given kind
// (prediction, wasted, postclick, funnel) and whether it fell back to
// baseline estimates.
func RecordAnalysis(kind string, fallback bool) {
	mu.Lock()
	defer mu.Unlock()

	f := "false"
	if fallback {
		f = "true"
	}
	analysesTotal[analysisKey{Kind: kind, Fallback: f}]++
}

// RecordCapture counts one browser capture attempt per device.
func RecordCapture(device string, success bool) {
	mu.Lock()
	defer mu.Unlock()

	s := "false"
	if success {
		s = "true"
	}
	capturesTotal[captureKey{Device: device, Success: s}]++
}

// RecordCacheLookup counts a cache hit or miss per analysis kind.
func RecordCacheLookup(kind string, hit bool) {
	mu.Lock()
	defer mu.Unlock()

	if hit {
		cacheHitsTotal[kind]++
	} else {
		cacheMissesTotal[kind]++
	}
}

// Export returns Prometheus-style metrics text.
func Export() string {
	mu.RLock()
	defer mu.RUnlock()

	var b strings.Builder

	b.WriteString("# HELP ctalens_http_requests_total Total HTTP requests\n")
	b.WriteString("# TYPE ctalens_http_requests_total counter\n")

	// Sort keys for stable output
	var reqKeys []reqKey
	for k := range requestsTotal {
		reqKeys = append(reqKeys, k)
	}
	sort.Slice(reqKeys, func(i, j int) bool {
		if reqKeys[i].Method != reqKeys[j].Method {
			return reqKeys[i].Method < reqKeys[j].Method
		}
		if reqKeys[i].Path != reqKeys[j].Path {
			return reqKeys[i].Path < reqKeys[j].Path
		}
		return reqKeys[i].Status < reqKeys[j].Status
	})

	for _, k := range reqKeys {
		v := requestsTotal[k]
		fmt.Fprintf(&b, "ctalens_http_requests_total{method=\"%s\",path=\"%s\",status=\"%d\"} %d\n",
			k.Method, k.Path, k.Status, v)
	}

	b.WriteString("# HELP ctalens_http_request_duration_ms_sum Total request duration in milliseconds\n")
	b.WriteString("# TYPE ctalens_http_request_duration_ms_sum counter\n")
	b.WriteString("# HELP ctalens_http_request_duration_ms_count Request count for latency metric\n")
	b.WriteString("# TYPE ctalens_http_request_duration_ms_count counter\n")

	var latKeys []latKey
	for k := range latencyMsSum {
		latKeys = append(latKeys, k)
	}
	sort.Slice(latKeys, func(i, j int) bool {
		if latKeys[i].Method != latKeys[j].Method {
			return latKeys[i].Method < latKeys[j].Method
		}
		return latKeys[i].Path < latKeys[j].Path
	})

	for _, k := range latKeys {
		sum := latencyMsSum[k]
		cnt := latencyMsCount[k]
		fmt.Fprintf(&b, "ctalens_http_request_duration_ms_sum{method=\"%s\",path=\"%s\"} %d\n",
			k.Method, k.Path, sum)
		fmt.Fprintf(&b, "ctalens_http_request_duration_ms_count{method=\"%s\",path=\"%s\"} %d\n",
			k.Method, k.Path, cnt)
	}

	// Analysis metrics
	b.WriteString("# HELP ctalens_analyses_total Total completed analyses by kind and fallback mode\n")
	b.WriteString("# TYPE ctalens_analyses_total counter\n")

	var aKeys []analysisKey
	for k := range analysesTotal {
		aKeys = append(aKeys, k)
	}
	sort.Slice(aKeys, func(i, j int) bool {
		if aKeys[i].Kind != aKeys[j].Kind {
			return aKeys[i].Kind < aKeys[j].Kind
		}
		return aKeys[i].Fallback < aKeys[j].Fallback
	})

	for _, k := range aKeys {
		v := analysesTotal[k]
		fmt.Fprintf(&b, "ctalens_analyses_total{kind=\"%s\",fallback=\"%s\"} %d\n",
			k.Kind, k.Fallback, v)
	}

	// Capture metrics
	b.WriteString("# HELP ctalens_captures_total Total browser captures by device and outcome\n")
	b.WriteString("# TYPE ctalens_captures_total counter\n")

	var cKeys []captureKey
	for k := range capturesTotal {
		cKeys = append(cKeys, k)
	}
	sort.Slice(cKeys, func(i, j int) bool {
		if cKeys[i].Device != cKeys[j].Device {
			return cKeys[i].Device < cKeys[j].Device
		}
		return cKeys[i].Success < cKeys[j].Success
	})

	for _, k := range cKeys {
		v := capturesTotal[k]
		fmt.Fprintf(&b, "ctalens_captures_total{device=\"%s\",success=\"%s\"} %d\n",
			k.Device, k.Success, v)
	}

	// Cache metrics
	b.WriteString("# HELP ctalens_cache_hits_total Total analysis cache hits by kind\n")
	b.WriteString("# TYPE ctalens_cache_hits_total counter\n")

	var hitKinds []string
	for k := range cacheHitsTotal {
		hitKinds = append(hitKinds, k)
	}
	sort.Strings(hitKinds)
	for _, k := range hitKinds {
		fmt.Fprintf(&b, "ctalens_cache_hits_total{kind=\"%s\"} %d\n", k, cacheHitsTotal[k])
	}

	b.WriteString("# HELP ctalens_cache_misses_total Total analysis cache misses by kind\n")
	b.WriteString("# TYPE ctalens_cache_misses_total counter\n")

	var missKinds []string
	for k := range cacheMissesTotal {
		missKinds = append(missKinds, k)
	}
	sort.Strings(missKinds)
	for _, k := range missKinds {
		fmt.Fprintf(&b, "ctalens_cache_misses_total{kind=\"%s\"} %d\n", k, cacheMissesTotal[k])
	}

	return b.String()
}
