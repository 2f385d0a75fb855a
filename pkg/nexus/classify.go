package nexus

import (
	"io"
	"net/http"

	"golang.org/x/xerrors"

	"github.com/aquasecurity/nexus-download/pkg/types"
)

// State is the resolution state after the first response of a request.
type State int

const (
	Searching State = iota
	Redirected
	Failed
)

func (s State) String() string {
	switch s {
	case Searching:
		return "searching"
	case Redirected:
		return "redirected"
	}
	return "failed"
}

// Outcome is the classified first response of a search or redirect request.
type Outcome struct {
	State State

	// Body holds the search document (V2 Lucene, 200).
	Body []byte

	// Next is the redirect target (V2 Redirect and V3 Search, 3xx).
	Next Request
}

// Classify maps the response to the next state. It reads the body only for
// a V2 Lucene search result and never closes it.
func Classify(req Request, resp *http.Response) (Outcome, error) {
	switch code := resp.StatusCode; {
	case code == http.StatusOK && req.Generation == types.V2Lucene:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return Outcome{State: Failed}, &TransportError{URL: req.String(), Err: xerrors.Errorf("unable to read search response: %w", err)}
		}
		return Outcome{State: Searching, Body: body}, nil
	case isRedirect(code) && req.Generation != types.V2Lucene:
		next, err := req.Redirect(resp.Header.Get("Location"))
		if err != nil {
			return Outcome{State: Failed}, err
		}
		return Outcome{State: Redirected, Next: next}, nil
	case code == http.StatusBadRequest && req.Generation == types.V3Search:
		return Outcome{State: Failed}, ErrAmbiguousMatch
	case code == http.StatusUnauthorized:
		return Outcome{State: Failed}, ErrAuth
	case code == http.StatusNotFound:
		return Outcome{State: Failed}, ErrNotFound
	default:
		return Outcome{State: Failed}, &UnexpectedStatusError{
			StatusCode: code,
			Status:     resp.Status,
		}
	}
}

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusTemporaryRedirect:
		return true
	}
	return false
}
