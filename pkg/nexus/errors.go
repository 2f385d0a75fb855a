package nexus

import (
	"fmt"

	"golang.org/x/xerrors"
)

var (
	ErrInvalidCoordinates = xerrors.New("repository, group, artifact and version are required")
	ErrAuth               = xerrors.New("invalid Nexus Repository Manager credentials")
	ErrNotFound           = xerrors.New("asset does not exist for search, or invalid Nexus Repository Manager URL")
	ErrAmbiguousMatch     = xerrors.New("search returned multiple assets, please refine search criteria to find a single asset")
	ErrMultipleResults    = xerrors.New("search result contains multiple or zero artifact hits, please refine search criteria")
	ErrDownloadFailed     = xerrors.New("asset download was not successful")
	ErrMissingLocation    = xerrors.New("redirect response has no usable Location header")
)

// UnexpectedStatusError is returned for a status code the current
// generation has no transition for.
type UnexpectedStatusError struct {
	StatusCode int
	Status     string
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected response - status code: %d, status: %s", e.StatusCode, e.Status)
}

// TransportError wraps a network level failure (DNS, connect, TLS handshake).
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to execute request %q: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
