// Package proxy relays portal traffic to the spreadsheet web app. It
// owns the cross-origin headers and the shared API key so the browser
// side never carries credentials.
package proxy

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Relay forwards GET and POST requests to the script URL, injecting the
// API key on the way through.
type Relay struct {
	target     string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewRelay(target, apiKey string, timeout time.Duration, logger *zap.Logger) *Relay {
	return &Relay{
		target: target,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// ServeHTTP implements http.Handler
func (p *Relay) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.setCORSHeaders(w)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if p.target == "" {
		p.logger.Error("Relay target not configured")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "script URL not configured"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		p.forwardGet(w, r)
	case http.MethodPost:
		p.forwardPost(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (p *Relay) setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// forwardGet preserves the original query string and appends the key.
func (p *Relay) forwardGet(w http.ResponseWriter, r *http.Request) {
	target := p.target
	qs := r.URL.RawQuery
	if qs != "" {
		target += "?" + qs + "&apiKey=" + url.QueryEscape(p.apiKey)
	} else {
		target += "?apiKey=" + url.QueryEscape(p.apiKey)
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	p.relay(w, req)
}

// forwardPost re-encodes the JSON body with the key injected as a field,
// the way the script expects it.
func (p *Relay) forwardPost(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		p.logger.Warn("Failed to decode relay payload", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	payload["apiKey"] = p.apiKey

	body, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, p.target, bytes.NewBuffer(body))
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	p.relay(w, req)
}

// relay performs the upstream call and streams status and body back,
// including upstream errors so the frontend can see what went wrong.
func (p *Relay) relay(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Error("Relay upstream failed", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"error": "proxy error"})
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		p.logger.Warn("Relay response copy failed", zap.Error(err))
	}

	p.logger.Info("Relayed request",
		zap.String("method", req.Method),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
}
