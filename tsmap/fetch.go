// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vincent-petithory/dataurl"
)

type FetchError struct {
	URI    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: got status code %d", e.URI, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URI, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type Fetcher struct {
	client    *http.Client
	userAgent string
	log       logrus.FieldLogger
	metrics   *Metrics
}

// client HTTP : proxy, insecure, timeout
func NewFetcher(cfg Config, log logrus.FieldLogger, metrics *Metrics) (*Fetcher, error) {
	if log == nil {
		log = discardLogger()
	}
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
		transport.ForceAttemptHTTP2 = false
		transport.TLSHandshakeTimeout = 30 * time.Second
		log.WithField("proxy", proxyURL.String()).Info("using proxy")
	}
	if cfg.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		log.Warn("TLS verification disabled (insecure mode)")
	}
	return &Fetcher{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		userAgent: cfg.UserAgent,
		log:       log,
		metrics:   metrics,
	}, nil
}

// seul 200 compte ; data: décodé en local
func (f *Fetcher) Fetch(ctx context.Context, uri string) (string, error) {
	body, err := f.fetch(ctx, uri)
	if err != nil {
		f.metrics.fetchFailed()
		return "", err
	}
	return body, nil
}

func (f *Fetcher) fetch(ctx context.Context, uri string) (string, error) {
	if strings.HasPrefix(uri, "data:") {
		du, err := dataurl.DecodeString(uri)
		if err != nil {
			return "", &FetchError{URI: shortURI(uri), Err: err}
		}
		return string(du.Data), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return "", &FetchError{URI: uri, Err: err}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{URI: uri, Err: err}
	}
	defer f.closeResponse(resp)

	if resp.StatusCode != http.StatusOK {
		return "", &FetchError{URI: uri, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &FetchError{URI: uri, Err: err}
	}
	return string(body), nil
}

func (f *Fetcher) closeResponse(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		f.log.Debug(err)
	}
}
