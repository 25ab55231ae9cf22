package vision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"
)

var (
	ErrFetchFailed = errors.New("image download failed")

	errBlockedAddress = errors.New("address not allowed")
)

// Fetcher downloads images referenced by URL so clients can submit a stored
// photo instead of inlining it.
type Fetcher struct {
	client       *http.Client
	allowPrivate bool
}

type FetcherOption func(*Fetcher)

// AllowPrivateNetworks lets the fetcher reach loopback and private
// addresses. Only tests and local setups should need it.
func AllowPrivateNetworks() FetcherOption {
	return func(f *Fetcher) { f.allowPrivate = true }
}

func NewFetcher(timeout time.Duration, opts ...FetcherOption) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	f := &Fetcher{}
	for _, opt := range opts {
		opt(f)
	}

	dialer := &net.Dialer{Timeout: 10 * time.Second}
	if !f.allowPrivate {
		dialer.Control = rejectInternal
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	// the dial check has to see the real target, not a proxy
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext

	f.client = &http.Client{Timeout: timeout, Transport: transport}
	return f
}

// rejectInternal runs after DNS resolution for every connection, redirects
// included.
func rejectInternal(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", errBlockedAddress, address)
	}
	ip := net.ParseIP(host)
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsMulticast() {
		return fmt.Errorf("%w: %s", errBlockedAddress, host)
	}
	return nil
}

// Fetch downloads rawURL. Only http and https are followed, and bodies over
// MaxImageBytes are rejected without being buffered in full.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Image, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Image{}, fmt.Errorf("%w: unsupported image url", ErrInvalidImage)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, image/webp")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, errBlockedAddress) {
			return Image{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
		return Image{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Image{}, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	return newImage(data, resp.Header.Get("Content-Type"))
}
