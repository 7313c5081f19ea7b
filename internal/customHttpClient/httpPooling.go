package customHttpClient

import (
	"net/http"
	"time"

	"github.com/akolanti/DocChat/internal/config"
)

// one transport for every outbound client so Ollama and scraped hosts reuse connections
var customTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// NewClient returns a client on the shared transport. A zero timeout means none, which is
// what streaming LLM calls need.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{Transport: customTransport, Timeout: timeout}
}
