package resolver

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/xerrors"

	"github.com/aquasecurity/nexus-download/pkg/downloader"
	"github.com/aquasecurity/nexus-download/pkg/nexus"
	"github.com/aquasecurity/nexus-download/pkg/transport"
	"github.com/aquasecurity/nexus-download/pkg/types"
)

type Option struct {
	Endpoint        types.Endpoint
	APIVersion      types.APIVersion
	VersionSelector types.VersionSelector
	Downloader      downloader.Option

	// Executor overrides the HTTP transport built from Endpoint.
	Executor downloader.Executor

	// OnDownload is called after each asset has been completely written.
	OnDownload func(types.DownloadResult)
}

// Resolver turns artifact coordinates into downloaded files. It runs a single
// pipeline whose request and response handling depend on the API generation.
type Resolver struct {
	base       types.Endpoint
	apiVersion types.APIVersion
	selector   types.VersionSelector
	executor   downloader.Executor
	downloader downloader.Downloader
	onDownload func(types.DownloadResult)
	logger     *slog.Logger
}

func New(opt Option) Resolver {
	if opt.Executor == nil {
		opt.Executor = transport.New(opt.Endpoint)
	}
	if opt.APIVersion == "" {
		opt.APIVersion = types.APIVersion3
	}
	if opt.VersionSelector == "" {
		opt.VersionSelector = types.SelectBaseVersion
	}
	if opt.OnDownload == nil {
		opt.OnDownload = func(types.DownloadResult) {}
	}
	return Resolver{
		base:       opt.Endpoint,
		apiVersion: opt.APIVersion,
		selector:   opt.VersionSelector,
		executor:   opt.Executor,
		downloader: downloader.NewDownloader(opt.Executor, opt.Downloader),
		onDownload: opt.OnDownload,
		logger:     slog.Default().With(slog.String("component", "resolver")),
	}
}

// Resolve downloads the asset(s) identified by the coordinates.
//
// For Nexus 2 without an extension, a Lucene search lists the extensions of
// the single matching artifact and each one is downloaded in turn. Otherwise
// exactly one redirect request is made. The first failure stops the run.
func (r Resolver) Resolve(ctx context.Context, coords types.Coordinates) ([]types.DownloadResult, error) {
	switch r.apiVersion {
	case types.APIVersion2:
		if coords.Extension == "" {
			return r.searchAndDownload(ctx, coords)
		}
		result, err := r.redirectAndDownload(ctx, nexus.Normalize(coords), types.V2Redirect)
		if err != nil {
			return nil, err
		}
		return []types.DownloadResult{result}, nil
	case types.APIVersion3:
		result, err := r.redirectAndDownload(ctx, nexus.Normalize(coords), types.V3Search)
		if err != nil {
			return nil, err
		}
		return []types.DownloadResult{result}, nil
	}
	return nil, xerrors.Errorf("unsupported API version: %s", r.apiVersion)
}

func (r Resolver) searchAndDownload(ctx context.Context, coords types.Coordinates) ([]types.DownloadResult, error) {
	req, err := nexus.Build(r.base.BaseURL, coords, types.V2Lucene, r.selector)
	if err != nil {
		return nil, xerrors.Errorf("unable to build search request: %w", err)
	}
	r.logger.Info("Searching for assets", slog.String("url", req.String()))

	outcome, err := r.first(ctx, req)
	if err != nil {
		return nil, err
	}

	extensions, err := nexus.Disambiguate(outcome.Body)
	if err != nil {
		return nil, xerrors.Errorf("search error: %w", err)
	}
	r.logger.Info("Found assets", slog.String("extensions", strings.Join(extensions, ",")))

	var results []types.DownloadResult
	for _, ext := range extensions {
		c := coords
		c.Extension = ext
		result, err := r.redirectAndDownload(ctx, c, types.V2Redirect)
		if err != nil {
			return results, xerrors.Errorf("download error (extension: %s): %w", ext, err)
		}
		results = append(results, result)
	}
	return results, nil
}

func (r Resolver) redirectAndDownload(ctx context.Context, coords types.Coordinates, gen types.Generation) (types.DownloadResult, error) {
	req, err := nexus.Build(r.base.BaseURL, coords, gen, r.selector)
	if err != nil {
		return types.DownloadResult{}, xerrors.Errorf("unable to build %s request: %w", gen, err)
	}
	r.logger.Info("Resolving asset", slog.String("url", req.String()), slog.Int("port", req.Port()))

	outcome, err := r.first(ctx, req)
	if err != nil {
		return types.DownloadResult{}, err
	}
	r.logger.Debug("Redirected", slog.String("location", outcome.Next.String()))

	result, err := r.downloader.Download(ctx, outcome.Next, sameHost(req, outcome.Next))
	if err != nil {
		return types.DownloadResult{}, xerrors.Errorf("asset streaming error: %w", err)
	}
	r.onDownload(result)
	return result, nil
}

// first executes the search or redirect request and classifies its response.
func (r Resolver) first(ctx context.Context, req nexus.Request) (nexus.Outcome, error) {
	resp, err := r.executor.Execute(ctx, req, true)
	if err != nil {
		return nexus.Outcome{State: nexus.Failed}, xerrors.Errorf("http get error: %w", err)
	}
	defer resp.Body.Close()

	outcome, err := nexus.Classify(req, resp)
	if err != nil {
		return outcome, xerrors.Errorf("%s request failed: %w", req.Generation, err)
	}
	return outcome, nil
}

// sameHost reports whether credentials may follow the redirect.
func sameHost(origin, target nexus.Request) bool {
	return strings.EqualFold(origin.URL.Hostname(), target.URL.Hostname()) && origin.Port() == target.Port()
}
