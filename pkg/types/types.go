package types

import (
	"net/url"
	"time"

	"github.com/aquasecurity/nexus-download/pkg/secret"
)

// APIVersion is the Nexus Repository Manager generation targeted by a run.
type APIVersion string

const (
	APIVersion2 APIVersion = "v2"
	APIVersion3 APIVersion = "v3"
)

// Generation selects the request/response pipeline used for a single request.
type Generation int

const (
	V2Lucene Generation = iota
	V2Redirect
	V3Search
)

func (g Generation) String() string {
	switch g {
	case V2Lucene:
		return "v2-lucene"
	case V2Redirect:
		return "v2-redirect"
	case V3Search:
		return "v3-search"
	}
	return "unknown"
}

// VersionSelector decides which V3 search parameter carries the version.
type VersionSelector string

const (
	// SelectBaseVersion emits `maven.baseVersion` (exact match).
	SelectBaseVersion VersionSelector = "baseVersion"
	// SelectVersion emits `version`, which matches release and snapshot versions.
	SelectVersion VersionSelector = "version"
)

type AuthScheme string

const (
	AuthNone             AuthScheme = "None"
	AuthUsernamePassword AuthScheme = "UsernamePassword"
)

// Coordinates identifies a Maven artifact in a Nexus repository.
type Coordinates struct {
	Repository string
	Group      string
	Artifact   string
	Version    string
	Packaging  string
	Classifier string
	Extension  string
}

// Endpoint is the connection configuration for a Nexus instance.
// It is built once per run and never mutated afterwards.
type Endpoint struct {
	BaseURL              *url.URL
	AuthScheme           AuthScheme
	Username             string
	Password             secret.Secret
	AcceptUntrustedCerts bool
}

// HasCredentials reports whether Basic credentials should be attached.
func (e Endpoint) HasCredentials() bool {
	return e.AuthScheme == AuthUsernamePassword && e.Username != "" && !e.Password.IsZero()
}

// DownloadResult describes a completely written asset.
type DownloadResult struct {
	Filename string        `json:"filename"`
	Path     string        `json:"path"`
	URL      string        `json:"url"`
	Size     int64         `json:"size"`
	SHA1     string        `json:"sha1"`
	Duration time.Duration `json:"duration"`
}
