package http

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/fwojciec/harvest"
	"github.com/temoto/robotstxt"
)

var _ harvest.LinkFilter = (*RobotsFilter)(nil)

// RobotsFilter allows only links that the target host's robots.txt permits
// for the configured user agent. Rules are fetched once per host. Hosts
// whose robots.txt cannot be retrieved are allowed.
type RobotsFilter struct {
	client    *http.Client
	userAgent string

	mu    sync.Mutex
	hosts map[string]*robotstxt.Group
}

// NewRobotsFilter returns a RobotsFilter. A nil client uses http.DefaultClient.
func NewRobotsFilter(client *http.Client, userAgent string) *RobotsFilter {
	if client == nil {
		client = http.DefaultClient
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &RobotsFilter{
		client:    client,
		userAgent: userAgent,
		hosts:     make(map[string]*robotstxt.Group),
	}
}

// Allow reports whether rawURL may be crawled.
func (f *RobotsFilter) Allow(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() {
		return false
	}
	group := f.group(ctx, u)
	if group == nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return group.Test(path)
}

func (f *RobotsFilter) group(ctx context.Context, u *url.URL) *robotstxt.Group {
	host := strings.ToLower(u.Scheme + "://" + u.Host)

	f.mu.Lock()
	group, ok := f.hosts[host]
	f.mu.Unlock()
	if ok {
		return group
	}

	group = f.fetch(ctx, host)

	f.mu.Lock()
	f.hosts[host] = group
	f.mu.Unlock()
	return group
}

func (f *RobotsFilter) fetch(ctx context.Context, host string) *robotstxt.Group {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	return data.FindGroup(f.userAgent)
}
