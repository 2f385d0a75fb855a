package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/nexus-download/pkg/downloader"
	"github.com/aquasecurity/nexus-download/pkg/fileutil"
	"github.com/aquasecurity/nexus-download/pkg/input"
	nxlog "github.com/aquasecurity/nexus-download/pkg/log"
	"github.com/aquasecurity/nexus-download/pkg/pipeline"
	"github.com/aquasecurity/nexus-download/pkg/resolver"
	"github.com/aquasecurity/nexus-download/pkg/types"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		log.Fatalf("%+v", err)
	}
}

func newRootCommand() *cobra.Command {
	var opts input.Options
	cmd := &cobra.Command{
		Use:           "nexus-download",
		Short:         "Download a Maven artifact from Nexus Repository Manager 2 or 3",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	input.AddFlags(cmd.Flags(), &opts)
	return cmd
}

func run(ctx context.Context, opts input.Options) error {
	nxlog.InitLogger(opts.Debug)
	logger := slog.Default()

	cfg, err := opts.Validate()
	if err != nil {
		return xerrors.Errorf("input error: %w", err)
	}
	input.LogEnvironment(logger)
	input.LogOptionalInputs(logger, cfg.Coordinates)

	if err = fileutil.EnsureDir(cfg.DownloadPath); err != nil {
		return xerrors.Errorf("download path error: %w", err)
	}

	out := pipeline.NewWriter(os.Stdout)
	r := resolver.New(resolver.Option{
		Endpoint:        cfg.Endpoint,
		APIVersion:      cfg.APIVersion,
		VersionSelector: cfg.VersionSelector,
		Downloader: downloader.Option{
			Dir:      cfg.DownloadPath,
			Progress: cfg.Progress,
		},
		OnDownload: func(res types.DownloadResult) {
			if cfg.NoOutputVariable {
				return
			}
			if err := out.SetOutputVariable(pipeline.AssetFilenameVariable, res.Filename); err != nil {
				logger.Warn("Unable to set output variable", slog.Any("error", err))
			}
		},
	})

	results, err := r.Resolve(ctx, cfg.Coordinates)
	if cfg.ResultFile != "" {
		if results == nil {
			results = []types.DownloadResult{}
		}
		if werr := fileutil.WriteJSON(cfg.ResultFile, results); werr != nil {
			logger.Warn("Unable to write result file", slog.Any("error", werr))
		}
	}
	if err != nil {
		return xerrors.Errorf("resolve error: %w", err)
	}

	logger.Info("Download completed", slog.Int("assets", len(results)))
	return nil
}
