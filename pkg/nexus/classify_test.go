package nexus

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasecurity/nexus-download/pkg/types"
)

func newResponse(code int, location, body string) *http.Response {
	resp := &http.Response{
		StatusCode: code,
		Status:     http.StatusText(code),
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
	if location != "" {
		resp.Header.Set("Location", location)
	}
	return resp
}

func TestClassify(t *testing.T) {
	const location = "https://host/repo/path/artifact-1.0.jar"

	tests := []struct {
		name      string
		gen       types.Generation
		code      int
		location  string
		wantState State
		wantErr   error
	}{
		{name: "lucene 200", gen: types.V2Lucene, code: http.StatusOK, wantState: Searching},
		{name: "lucene 302", gen: types.V2Lucene, code: http.StatusFound, location: location, wantState: Failed},
		{name: "lucene 401", gen: types.V2Lucene, code: http.StatusUnauthorized, wantState: Failed, wantErr: ErrAuth},
		{name: "lucene 404", gen: types.V2Lucene, code: http.StatusNotFound, wantState: Failed, wantErr: ErrNotFound},
		{name: "lucene 400", gen: types.V2Lucene, code: http.StatusBadRequest, wantState: Failed},
		{name: "redirect 301", gen: types.V2Redirect, code: http.StatusMovedPermanently, location: location, wantState: Redirected},
		{name: "redirect 307", gen: types.V2Redirect, code: http.StatusTemporaryRedirect, location: location, wantState: Redirected},
		{name: "redirect 200", gen: types.V2Redirect, code: http.StatusOK, wantState: Failed},
		{name: "redirect 400", gen: types.V2Redirect, code: http.StatusBadRequest, wantState: Failed},
		{name: "redirect 401", gen: types.V2Redirect, code: http.StatusUnauthorized, wantState: Failed, wantErr: ErrAuth},
		{name: "redirect 404", gen: types.V2Redirect, code: http.StatusNotFound, wantState: Failed, wantErr: ErrNotFound},
		{name: "search 302", gen: types.V3Search, code: http.StatusFound, location: location, wantState: Redirected},
		{name: "search 302 without location", gen: types.V3Search, code: http.StatusFound, wantState: Failed, wantErr: ErrMissingLocation},
		{name: "search 400", gen: types.V3Search, code: http.StatusBadRequest, wantState: Failed, wantErr: ErrAmbiguousMatch},
		{name: "search 401", gen: types.V3Search, code: http.StatusUnauthorized, wantState: Failed, wantErr: ErrAuth},
		{name: "search 404", gen: types.V3Search, code: http.StatusNotFound, wantState: Failed, wantErr: ErrNotFound},
		{name: "search 500", gen: types.V3Search, code: http.StatusInternalServerError, wantState: Failed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := Request{URL: mustParse(t, "https://nexus.example.com/search"), Generation: tt.gen}
			resp := newResponse(tt.code, tt.location, "<searchNGResponse/>")

			got, err := Classify(req, resp)
			assert.Equal(t, tt.wantState, got.State)

			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.wantState == Failed:
				var statusErr *UnexpectedStatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, tt.code, statusErr.StatusCode)
			default:
				require.NoError(t, err)
			}

			switch tt.wantState {
			case Searching:
				assert.Equal(t, "<searchNGResponse/>", string(got.Body))
			case Redirected:
				assert.Equal(t, location, got.Next.String())
				assert.Equal(t, "artifact-1.0.jar", got.Next.Filename())
			}
		})
	}
}
