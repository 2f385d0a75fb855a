package nexus

import (
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/nexus-download/pkg/types"
)

const (
	lucenePath   = "/service/local/lucene/search"
	redirectPath = "/service/local/artifact/maven/redirect"
	searchPath   = "/service/rest/v1/search/assets/download"
)

// Normalize defaults the extension to the packaging when no extension is given.
func Normalize(c types.Coordinates) types.Coordinates {
	if c.Extension == "" && c.Packaging != "" {
		c.Extension = c.Packaging
	}
	return c
}

// Request is a fully resolved request URI tagged with the generation whose
// classification rules apply to its response.
type Request struct {
	URL        *url.URL
	Generation types.Generation
}

// Accept returns the Accept header value the generation expects.
func (r Request) Accept() string {
	if r.Generation == types.V3Search {
		return "application/json"
	}
	return "application/xml"
}

// Port returns the explicit URI port, otherwise the scheme's default port.
func (r Request) Port() int {
	if p := r.URL.Port(); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			return n
		}
	}
	return lo.Ternary(r.URL.Scheme == "https", 443, 80)
}

func (r Request) String() string {
	return r.URL.String()
}

// Redirect derives the request for a Location header value. Host, port and
// path come from the location; the query is discarded.
func (r Request) Redirect(location string) (Request, error) {
	if location == "" {
		return Request{}, ErrMissingLocation
	}
	loc, err := url.Parse(location)
	if err != nil {
		return Request{}, xerrors.Errorf("%w: %s", ErrMissingLocation, err)
	}
	// Nexus always sends absolute locations, but proxies in front of it may not.
	loc = r.URL.ResolveReference(loc)

	return Request{
		URL: &url.URL{
			Scheme:  loc.Scheme,
			Host:    loc.Host,
			Path:    loc.Path,
			RawPath: loc.RawPath,
		},
		Generation: r.Generation,
	}, nil
}

// Filename returns the final segment of the request path.
func (r Request) Filename() string {
	name := path.Base(r.URL.Path)
	if name == "/" || name == "." {
		return ""
	}
	return name
}

// Build constructs the generation specific request for the coordinates.
// Coordinates are expected to be normalized already.
func Build(base *url.URL, c types.Coordinates, gen types.Generation, selector types.VersionSelector) (Request, error) {
	if c.Repository == "" || c.Group == "" || c.Artifact == "" || c.Version == "" {
		return Request{}, ErrInvalidCoordinates
	}

	var (
		suffix string
		q      query
	)
	switch gen {
	case types.V2Lucene:
		suffix = lucenePath
		q.add("repositoryId", c.Repository)
		q.add("g", c.Group)
		q.add("a", c.Artifact)
		q.add("v", c.Version)
		q.addIf("c", c.Classifier)
		q.addIf("p", c.Packaging)
	case types.V2Redirect:
		suffix = redirectPath
		q.add("r", c.Repository)
		q.add("g", c.Group)
		q.add("a", c.Artifact)
		q.add("v", c.Version)
		q.addIf("p", c.Packaging)
		q.addIf("e", c.Extension)
		q.addIf("c", c.Classifier)
	case types.V3Search:
		suffix = searchPath
		q.add("repository", c.Repository)
		q.add("maven.groupId", c.Group)
		q.add("maven.artifactId", c.Artifact)
		q.add("maven.extension", c.Extension)
		// Always present: an empty value asks for assets without a classifier.
		q.add("maven.classifier", "")
		if c.Classifier != "" {
			q.set("maven.classifier", c.Classifier)
		}
		if selector == types.SelectVersion {
			q.add("version", c.Version)
		} else {
			q.add("maven.baseVersion", c.Version)
		}
	default:
		return Request{}, xerrors.Errorf("unknown API generation: %d", gen)
	}

	u := *base
	u.User = nil
	u.Path = joinPath(base.Path, suffix)
	u.RawPath = ""
	u.RawQuery = q.encode()
	u.Fragment = ""

	return Request{
		URL:        &u,
		Generation: gen,
	}, nil
}

func joinPath(basePath, suffix string) string {
	if basePath == "" || basePath == "/" {
		return suffix
	}
	return path.Join(basePath, suffix)
}

type param struct {
	key   string
	value string
}

// query keeps insertion order, which url.Values.Encode does not.
type query []param

func (q *query) add(key, value string) {
	*q = append(*q, param{key: key, value: value})
}

func (q *query) addIf(key, value string) {
	if value != "" {
		q.add(key, value)
	}
}

func (q *query) set(key, value string) {
	for i := range *q {
		if (*q)[i].key == key {
			(*q)[i].value = value
			return
		}
	}
	q.add(key, value)
}

func (q query) encode() string {
	var sb strings.Builder
	for i, p := range q {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.value))
	}
	return sb.String()
}
