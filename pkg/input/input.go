package input

import (
	"log/slog"
	"net/url"
	"os"
	"strconv"

	"github.com/samber/lo"
	"github.com/spf13/pflag"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/nexus-download/pkg/nexus"
	"github.com/aquasecurity/nexus-download/pkg/secret"
	"github.com/aquasecurity/nexus-download/pkg/types"
)

var proxyEnvs = []string{"HTTP_PROXY", "HTTPS_PROXY", "NO_PROXY", "http_proxy", "https_proxy", "no_proxy"}

// Options holds the raw task inputs as given on the command line or in the environment.
type Options struct {
	URL                  string
	Username             string
	Password             string
	AcceptUntrustedCerts bool
	APIVersion           string
	VersionSelector      string

	Repository string
	Group      string
	Artifact   string
	Version    string
	Packaging  string
	Classifier string
	Extension  string

	DownloadPath     string
	ResultFile       string
	Debug            bool
	Progress         bool
	NoOutputVariable bool
}

// Config is the validated, immutable form of Options.
type Config struct {
	Endpoint         types.Endpoint
	Coordinates      types.Coordinates
	APIVersion       types.APIVersion
	VersionSelector  types.VersionSelector
	DownloadPath     string
	ResultFile       string
	Progress         bool
	NoOutputVariable bool
}

// AddFlags registers every input. Each flag defaults to its environment variable.
func AddFlags(fs *pflag.FlagSet, o *Options) {
	fs.StringVar(&o.URL, "url", os.Getenv("NEXUS_URL"), "Nexus Repository Manager base URL [$NEXUS_URL]")
	fs.StringVar(&o.Username, "username", os.Getenv("NEXUS_USERNAME"), "username [$NEXUS_USERNAME]")
	fs.StringVar(&o.Password, "password", "", "password, prefer $NEXUS_PASSWORD")
	fs.BoolVar(&o.AcceptUntrustedCerts, "accept-untrusted-certs", envBool("NEXUS_ACCEPT_UNTRUSTED_CERTS"),
		"accept self-signed or otherwise untrusted TLS certificates [$NEXUS_ACCEPT_UNTRUSTED_CERTS]")
	fs.StringVar(&o.APIVersion, "api-version", envOr("NEXUS_API_VERSION", string(types.APIVersion3)),
		"Nexus API generation, v2 or v3 [$NEXUS_API_VERSION]")
	fs.StringVar(&o.VersionSelector, "version-selector", envOr("NEXUS_VERSION_SELECTOR", string(types.SelectBaseVersion)),
		"v3 version parameter, baseVersion or version [$NEXUS_VERSION_SELECTOR]")

	fs.StringVar(&o.Repository, "repository", os.Getenv("NEXUS_REPOSITORY"), "repository ID [$NEXUS_REPOSITORY]")
	fs.StringVar(&o.Group, "group", os.Getenv("NEXUS_GROUP"), "Maven groupId [$NEXUS_GROUP]")
	fs.StringVar(&o.Artifact, "artifact", os.Getenv("NEXUS_ARTIFACT"), "Maven artifactId [$NEXUS_ARTIFACT]")
	fs.StringVar(&o.Version, "version", os.Getenv("NEXUS_VERSION"), "Maven version [$NEXUS_VERSION]")
	fs.StringVar(&o.Packaging, "packaging", os.Getenv("NEXUS_PACKAGING"), "Maven packaging [$NEXUS_PACKAGING]")
	fs.StringVar(&o.Classifier, "classifier", os.Getenv("NEXUS_CLASSIFIER"), "Maven classifier [$NEXUS_CLASSIFIER]")
	fs.StringVar(&o.Extension, "extension", os.Getenv("NEXUS_EXTENSION"), "Maven extension [$NEXUS_EXTENSION]")

	fs.StringVar(&o.DownloadPath, "download-path", envOr("NEXUS_DOWNLOAD_PATH", "."), "directory to save assets to [$NEXUS_DOWNLOAD_PATH]")
	fs.StringVar(&o.ResultFile, "result-file", "", "write the downloaded assets as JSON to this file")
	fs.BoolVar(&o.Debug, "debug", false, "enable debug logging [$SYSTEM_DEBUG]")
	fs.BoolVar(&o.Progress, "progress", false, "show a download progress bar")
	fs.BoolVar(&o.NoOutputVariable, "no-output-variable", false, "do not set the "+
		"MAVEN_REPOSITORY_ASSET_FILENAME pipeline variable")

	if o.Password == "" {
		o.Password = os.Getenv("NEXUS_PASSWORD")
	}
}

// Validate converts the raw inputs into a Config. No network access happens before this succeeds.
func (o Options) Validate() (Config, error) {
	u, err := url.Parse(o.URL)
	if err != nil {
		return Config{}, xerrors.Errorf("invalid Nexus URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Config{}, xerrors.Errorf("invalid Nexus URL %q: scheme must be http or https", u.Redacted())
	}

	if (o.Username == "") != (o.Password == "") {
		return Config{}, xerrors.New("username and password must be supplied together")
	}

	api := types.APIVersion(o.APIVersion)
	if api != types.APIVersion2 && api != types.APIVersion3 {
		return Config{}, xerrors.Errorf("unsupported API version %q", o.APIVersion)
	}

	selector := types.VersionSelector(o.VersionSelector)
	if selector != types.SelectBaseVersion && selector != types.SelectVersion {
		return Config{}, xerrors.Errorf("unsupported version selector %q", o.VersionSelector)
	}

	coords := types.Coordinates{
		Repository: o.Repository,
		Group:      o.Group,
		Artifact:   o.Artifact,
		Version:    o.Version,
		Packaging:  o.Packaging,
		Classifier: o.Classifier,
		Extension:  o.Extension,
	}
	if missing := missingCoordinates(coords); len(missing) > 0 {
		return Config{}, xerrors.Errorf("%w (missing: %v)", nexus.ErrInvalidCoordinates, missing)
	}

	if o.DownloadPath == "" {
		o.DownloadPath = "."
	}

	return Config{
		Endpoint: types.Endpoint{
			BaseURL:              u,
			AuthScheme:           lo.Ternary(o.Username != "", types.AuthUsernamePassword, types.AuthNone),
			Username:             o.Username,
			Password:             secret.New(o.Password),
			AcceptUntrustedCerts: o.AcceptUntrustedCerts,
		},
		Coordinates:      coords,
		APIVersion:       api,
		VersionSelector:  selector,
		DownloadPath:     o.DownloadPath,
		ResultFile:       o.ResultFile,
		Progress:         o.Progress,
		NoOutputVariable: o.NoOutputVariable,
	}, nil
}

func missingCoordinates(c types.Coordinates) []string {
	required := []lo.Tuple2[string, string]{
		lo.T2("repository", c.Repository),
		lo.T2("group", c.Group),
		lo.T2("artifact", c.Artifact),
		lo.T2("version", c.Version),
	}
	return lo.FilterMap(required, func(t lo.Tuple2[string, string], _ int) (string, bool) {
		return t.A, t.B == ""
	})
}

// LogEnvironment reports proxy settings at debug level. Credentials embedded
// in proxy URLs are masked.
func LogEnvironment(logger *slog.Logger) {
	for _, key := range proxyEnvs {
		v, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		if u, err := url.Parse(v); err == nil && u.User != nil {
			v = u.Redacted()
		}
		logger.Debug("Proxy environment", slog.String("name", key), slog.String("value", v))
	}
}

// LogOptionalInputs reports which optional coordinates were supplied.
func LogOptionalInputs(logger *slog.Logger, c types.Coordinates) {
	optional := []lo.Tuple2[string, string]{
		lo.T2("packaging", c.Packaging),
		lo.T2("extension", c.Extension),
		lo.T2("classifier", c.Classifier),
	}
	for _, t := range optional {
		if t.B == "" {
			logger.Info("Optional input has not been supplied", slog.String("input", t.A))
			continue
		}
		logger.Info("Optional input supplied", slog.String("input", t.A), slog.String("value", t.B))
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
