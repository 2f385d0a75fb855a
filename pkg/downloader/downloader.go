package downloader

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/xerrors"
	"k8s.io/utils/clock"

	"github.com/aquasecurity/nexus-download/pkg/fileutil"
	"github.com/aquasecurity/nexus-download/pkg/hash"
	"github.com/aquasecurity/nexus-download/pkg/nexus"
	"github.com/aquasecurity/nexus-download/pkg/types"
)

// Executor performs a single GET request. It is implemented by transport.Transport.
type Executor interface {
	Execute(ctx context.Context, r nexus.Request, withAuth bool) (*http.Response, error)
}

type Option struct {
	// Dir is the provisioned download directory. The current directory is used when empty.
	Dir string

	// Progress renders a progress bar to ProgressWriter (os.Stderr by default).
	Progress       bool
	ProgressWriter io.Writer

	Clock clock.PassiveClock
}

// Downloader streams a redirect target to a local file named after the
// final segment of the target path.
type Downloader struct {
	executor Executor
	dir      string
	progress bool
	out      io.Writer
	clock    clock.PassiveClock
	logger   *slog.Logger
}

func NewDownloader(executor Executor, opt Option) Downloader {
	if opt.ProgressWriter == nil {
		opt.ProgressWriter = os.Stderr
	}
	if opt.Clock == nil {
		opt.Clock = clock.RealClock{}
	}
	return Downloader{
		executor: executor,
		dir:      opt.Dir,
		progress: opt.Progress,
		out:      opt.ProgressWriter,
		clock:    opt.Clock,
		logger:   slog.Default().With(slog.String("component", "downloader")),
	}
}

// Download fetches the target and writes it to disk as it arrives. A failed
// or interrupted download removes the partially written file.
func (d Downloader) Download(ctx context.Context, target nexus.Request, withAuth bool) (types.DownloadResult, error) {
	filename := target.Filename()
	if filename == "" {
		return types.DownloadResult{}, xerrors.Errorf("%w: no filename in %q", nexus.ErrDownloadFailed, target.String())
	}
	d.logger.Info("Download file", slog.String("url", target.String()), slog.String("filename", filename))

	start := d.clock.Now()
	resp, err := d.executor.Execute(ctx, target, withAuth)
	if err != nil {
		return types.DownloadResult{}, xerrors.Errorf("http get error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.DownloadResult{}, xerrors.Errorf("%w - status code: %d, status: %s", nexus.ErrDownloadFailed, resp.StatusCode, resp.Status)
	}

	filePath := filepath.Join(d.dir, filename)
	digest := hash.NewSHA1()
	size, err := d.save(filePath, resp, digest)
	if err != nil {
		if rerr := fileutil.RemoveIfExists(filePath); rerr != nil {
			d.logger.Warn("Unable to remove incomplete file", slog.String("path", filePath), slog.Any("error", rerr))
		}
		return types.DownloadResult{}, &nexus.TransportError{URL: target.String(), Err: err}
	}

	result := types.DownloadResult{
		Filename: filename,
		Path:     filePath,
		URL:      target.String(),
		Size:     size,
		SHA1:     digest.Sum(),
		Duration: d.clock.Since(start),
	}
	d.logger.Info("Successfully downloaded asset", slog.String("filename", filename),
		slog.Int64("bytes", size), slog.String("sha1", result.SHA1), slog.Duration("duration", result.Duration))
	return result, nil
}

func (d Downloader) save(filePath string, resp *http.Response, digest io.Writer) (int64, error) {
	f, err := os.Create(filePath)
	if err != nil {
		return 0, xerrors.Errorf("can't create file %s: %w", filePath, err)
	}

	var body io.Reader = resp.Body
	if d.progress {
		bar := pb.New64(max(resp.ContentLength, 0)).
			SetTemplate(pb.Full).
			Set(pb.Bytes, true).
			SetWriter(d.out).
			Start()
		defer bar.Finish()
		body = bar.NewProxyReader(resp.Body)
	}

	n, err := io.Copy(io.MultiWriter(f, digest), body)
	if err != nil {
		_ = f.Close()
		return n, xerrors.Errorf("can't copy file %s: %w", filePath, err)
	}
	if err = f.Close(); err != nil {
		return n, xerrors.Errorf("can't close file %s: %w", filePath, err)
	}
	return n, nil
}
