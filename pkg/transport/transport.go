package transport

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/samber/lo"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/nexus-download/pkg/nexus"
	"github.com/aquasecurity/nexus-download/pkg/secret"
	"github.com/aquasecurity/nexus-download/pkg/types"
)

var sensitiveHeaders = map[string]struct{}{
	"Authorization":       {},
	"Proxy-Authorization": {},
	"Cookie":              {},
	"Set-Cookie":          {},
}

// Transport executes single GET requests against Nexus and the storage
// locations it redirects to. It keeps no connection state between requests.
type Transport struct {
	username             string
	password             secret.Secret
	credentials          bool
	acceptUntrustedCerts bool
	logger               *slog.Logger
}

func New(endpoint types.Endpoint) *Transport {
	logger := slog.Default().With(slog.String("component", "transport"))
	if endpoint.AcceptUntrustedCerts {
		logger.Warn("TLS certificate validation is disabled, untrusted certificates will be accepted")
	}
	return &Transport{
		username:             endpoint.Username,
		password:             endpoint.Password,
		credentials:          endpoint.HasCredentials(),
		acceptUntrustedCerts: endpoint.AcceptUntrustedCerts,
		logger:               logger,
	}
}

// Execute performs an HTTP GET for the request and returns the response with
// an unread body. Redirects are never followed. Basic credentials are attached
// only when withAuth is set and the endpoint has credentials.
func (t *Transport) Execute(ctx context.Context, r nexus.Request, withAuth bool) (*http.Response, error) {
	client := t.newClient(r.URL.Scheme)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, r.URL.String(), nil)
	if err != nil {
		return nil, xerrors.Errorf("unable to create a HTTP request: %w", err)
	}
	req.Header.Set("Accept", r.Accept())
	if withAuth && t.credentials {
		req.Header.Set("Authorization", "Basic "+BasicCredential(t.username, t.password).Reveal())
	}

	t.logger.Debug("HTTP request",
		slog.String("url", r.String()),
		slog.Int("port", r.Port()),
		slog.String("generation", r.Generation.String()),
		headerGroup(req.Header))

	resp, err := client.Do(req)
	if err != nil {
		return nil, &nexus.TransportError{URL: r.String(), Err: err}
	}

	t.logger.Debug("HTTP response",
		slog.Int("status_code", resp.StatusCode),
		slog.String("status", resp.Status),
		headerGroup(resp.Header))
	return resp, nil
}

// newClient builds a dedicated client for a single request so that TLS trust
// settings never leak between requests.
func (t *Transport) newClient(scheme string) *retryablehttp.Client {
	tr := cleanhttp.DefaultTransport()
	if scheme == "https" {
		tr.TLSClientConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: t.acceptUntrustedCerts, // nolint: gosec
		}
	}

	client := retryablehttp.NewClient()
	client.HTTPClient = &http.Client{
		Transport: tr,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	client.Logger = t.logger
	client.RetryMax = 0
	client.CheckRetry = func(ctx context.Context, _ *http.Response, _ error) (bool, error) {
		return false, ctx.Err()
	}
	client.ResponseLogHook = func(_ retryablehttp.Logger, resp *http.Response) {
		if resp.StatusCode >= http.StatusBadRequest {
			t.logger.Warn("Unexpected http response", slog.String("url", resp.Request.URL.String()), slog.String("status", resp.Status))
		}
	}
	client.ErrorHandler = func(resp *http.Response, err error, numTries int) (*http.Response, error) {
		logger := t.logger.With(slog.Int("num_tries", numTries))
		if resp != nil {
			logger = logger.With(slog.String("url", resp.Request.URL.String()), slog.Int("status_code", resp.StatusCode))
		}
		if err != nil {
			logger = logger.With(slog.String("error", err.Error()))
		}
		logger.Debug("HTTP request failed")
		return resp, xerrors.Errorf("HTTP request failed: %w", err)
	}
	return client
}

// BasicCredential returns base64(username:password).
func BasicCredential(username string, password secret.Secret) secret.Secret {
	return secret.New(base64.StdEncoding.EncodeToString([]byte(username + ":" + password.Reveal())))
}

func headerGroup(h http.Header) slog.Attr {
	keys := lo.Keys(h)
	sort.Strings(keys)

	attrs := lo.Map(keys, func(k string, _ int) any {
		v := strings.Join(h.Values(k), ", ")
		if _, ok := sensitiveHeaders[http.CanonicalHeaderKey(k)]; ok {
			return slog.Any(k, secret.New(v))
		}
		return slog.String(k, v)
	})
	return slog.Group("headers", attrs...)
}
