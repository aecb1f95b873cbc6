package httpclient

import (
	"net/http"
	"time"

	"calagent/internal/logging"
)

// New returns an http.Client configured for outbound requests.
//
// It respects HTTP(S)_PROXY/NO_PROXY from the environment and applies the
// caller's timeout, falling back to 30s.
func New(timeout time.Duration, logger logging.Logger) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport(logger),
	}
}

func transport(logger logging.Logger) *http.Transport {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return &http.Transport{Proxy: http.ProxyFromEnvironment}
	}
	t := base.Clone()
	t.Proxy = http.ProxyFromEnvironment
	return t
}
