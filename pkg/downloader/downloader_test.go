package downloader_test

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/aquasecurity/nexus-download/pkg/downloader"
	"github.com/aquasecurity/nexus-download/pkg/nexus"
	"github.com/aquasecurity/nexus-download/pkg/transport"
	"github.com/aquasecurity/nexus-download/pkg/types"
)

func target(t *testing.T, raw string) nexus.Request {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return nexus.Request{URL: u, Generation: types.V3Search}
}

func TestDownloader_Download(t *testing.T) {
	content := bytes.Repeat([]byte("0123456789"), 1024)

	tests := []struct {
		name      string
		path      string
		handler   http.HandlerFunc
		progress  bool
		want      string
		wantErr   error
		assertErr assert.ErrorAssertionFunc
	}{
		{
			name: "happy path",
			path: "/repository/releases/org/example/demo/1.2.0/demo-1.2.0.jar",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write(content)
			},
			want:      "demo-1.2.0.jar",
			assertErr: assert.NoError,
		},
		{
			name: "with progress bar",
			path: "/repository/releases/demo-1.2.0.pom",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write(content)
			},
			progress:  true,
			want:      "demo-1.2.0.pom",
			assertErr: assert.NoError,
		},
		{
			name: "not 200",
			path: "/repository/releases/demo-1.2.0.jar",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			},
			assertErr: func(t assert.TestingT, err error, _ ...interface{}) bool {
				return assert.ErrorIs(t, err, nexus.ErrDownloadFailed)
			},
		},
		{
			name: "interrupted stream",
			path: "/repository/releases/demo-1.2.0.jar",
			handler: func(w http.ResponseWriter, r *http.Request) {
				conn, buf, err := w.(http.Hijacker).Hijack()
				if err != nil {
					return
				}
				_, _ = buf.WriteString("HTTP/1.1 200 OK\r\nContent-Length: 102400\r\n\r\npartial")
				_ = buf.Flush()
				_ = conn.Close()
			},
			assertErr: func(t assert.TestingT, err error, _ ...interface{}) bool {
				var transportErr *nexus.TransportError
				return assert.ErrorAs(t, err, &transportErr)
			},
		},
		{
			name: "no filename",
			path: "/",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write(content)
			},
			assertErr: func(t assert.TestingT, err error, _ ...interface{}) bool {
				return assert.ErrorIs(t, err, nexus.ErrDownloadFailed)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			dir := t.TempDir()
			var progress bytes.Buffer
			fakeClock := testingclock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
			d := downloader.NewDownloader(transport.New(types.Endpoint{}), downloader.Option{
				Dir:            dir,
				Progress:       tt.progress,
				ProgressWriter: &progress,
				Clock:          fakeClock,
			})

			got, err := d.Download(context.Background(), target(t, ts.URL+tt.path), false)
			tt.assertErr(t, err)

			if tt.want == "" {
				entries, err := os.ReadDir(dir)
				require.NoError(t, err)
				assert.Empty(t, entries, "no file must be left behind")
				return
			}

			assert.Equal(t, tt.want, got.Filename)
			assert.Equal(t, filepath.Join(dir, tt.want), got.Path)
			assert.Equal(t, int64(len(content)), got.Size)
			sum := sha1.Sum(content)
			assert.Equal(t, hex.EncodeToString(sum[:]), got.SHA1)
			assert.Equal(t, time.Duration(0), got.Duration)

			b, err := os.ReadFile(got.Path)
			require.NoError(t, err)
			assert.Equal(t, content, b)
		})
	}
}

type recordingExecutor struct {
	withAuth bool
	resp     *http.Response
}

func (e *recordingExecutor) Execute(_ context.Context, _ nexus.Request, withAuth bool) (*http.Response, error) {
	e.withAuth = withAuth
	return e.resp, nil
}

func TestDownloader_PassesAuthDecision(t *testing.T) {
	exec := &recordingExecutor{resp: &http.Response{
		StatusCode:    http.StatusOK,
		Status:        "200 OK",
		Body:          io.NopCloser(bytes.NewReader([]byte("data"))),
		ContentLength: 4,
	}}
	d := downloader.NewDownloader(exec, downloader.Option{Dir: t.TempDir()})

	got, err := d.Download(context.Background(), target(t, "https://nexus.example.com/repository/releases/demo-1.2.0.jar"), true)
	require.NoError(t, err)
	assert.True(t, exec.withAuth)
	assert.Equal(t, int64(4), got.Size)
}
