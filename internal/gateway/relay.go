package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"meshworks/meshgate/internal/core"
)

// NewRelay builds a reverse proxy forwarding to the backend. Payment
// settlement happens before the relay runs and is never unwound: a
// backend failure after funds have moved surfaces as a 503, not a refund.
func NewRelay(backend string) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(backend)
	if err != nil {
		return nil, err
	}

	proxy := httputil.NewSingleHostReverseProxy(target)

	director := proxy.Director
	proxy.Director = func(req *http.Request) {
		director(req)
		req.Host = target.Host
	}

	// Mesh responses can trickle; flush every write so slow backends
	// stream instead of buffering.
	proxy.FlushInterval = -1

	proxy.Transport = &http.Transport{
		MaxConnsPerHost:       32 * 2,
		MaxIdleConns:          32 * 2,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: 60 * time.Second,
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		core.GetLogger().Errorw("backend relay failed",
			"path", r.URL.Path,
			"backend", backend,
			"error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "Backend unavailable",
			"message": err.Error(),
		})
	}

	return proxy, nil
}
