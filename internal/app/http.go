package app

import (
	"net"
	"net/http"
	"time"
)

// newCrawlHTTPClient returns an HTTP client for sequential crawling. The
// overall timeout is left to the fetch client's per-request timeout.
func newCrawlHTTPClient(perHostConns int) *http.Client {
	if perHostConns <= 0 {
		perHostConns = 4
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   perHostConns,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Transport: transport}
}
