// Package httputil builds http.Clients from explicit configuration.
//
// Proxy settings are plain values handed to the client instead of
// process-wide state, so two clients in the same process can use
// different proxies (or none) and nothing has to be undone afterwards.
package httputil

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/carlmjohnson/requests"
)

// ProxyConfig describes an HTTP proxy. Username/Password are optional;
// when set they are sent as proxy basic auth.
type ProxyConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// URL returns the proxy URL, nil for a nil config
func (p *ProxyConfig) URL() *url.URL {
	if p == nil {
		return nil
	}
	u := &url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
	}
	if p.Username != "" {
		u.User = url.UserPassword(p.Username, p.Password)
	}
	return u
}

// NewTimeoutClient returns an http.Client with explicit connect and
// read/write timeouts. A new one must be created for each request.
// proxy can be nil, in which case no proxy is used.
func NewTimeoutClient(connectTimeout time.Duration, readWriteTimeout time.Duration, proxy *ProxyConfig) *http.Client {
	timeoutDialer := func(cTimeout time.Duration, rwTimeout time.Duration) func(net, addr string) (c net.Conn, err error) {
		return func(netw, addr string) (net.Conn, error) {
			conn, err := net.DialTimeout(netw, addr, cTimeout)
			if err != nil {
				return nil, err
			}
			conn.SetDeadline(time.Now().Add(rwTimeout))
			return conn, nil
		}
	}

	tr := &http.Transport{
		Dial: timeoutDialer(connectTimeout, readWriteTimeout),
	}
	if proxy != nil {
		tr.Proxy = http.ProxyURL(proxy.URL())
	}
	return &http.Client{
		Transport: tr,
	}
}

// NewClient returns an http.Client with default timeouts, using proxy
// if not nil
func NewClient(proxy *ProxyConfig) *http.Client {
	return NewTimeoutClient(time.Second*120, time.Second*120, proxy)
}

// Get fetches uri and returns the response body. A non-2xx status is
// an error. client can be nil, in which case a default client is used.
func Get(ctx context.Context, client *http.Client, uri string) ([]byte, error) {
	if client == nil {
		client = NewClient(nil)
	}
	var buf bytes.Buffer
	err := requests.
		URL(uri).
		Client(client).
		ToBytesBuffer(&buf).
		Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GetToFile downloads uri to path
func GetToFile(ctx context.Context, client *http.Client, uri string, path string) error {
	if client == nil {
		client = NewClient(nil)
	}
	return requests.
		URL(uri).
		Client(client).
		ToFile(path).
		Fetch(ctx)
}

// Post sends body to uri and returns the response body. A non-2xx
// status is an error.
func Post(ctx context.Context, client *http.Client, uri string, body []byte) ([]byte, error) {
	if client == nil {
		client = NewClient(nil)
	}
	var buf bytes.Buffer
	err := requests.
		URL(uri).
		Client(client).
		Method(http.MethodPost).
		BodyBytes(body).
		ToBytesBuffer(&buf).
		Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
