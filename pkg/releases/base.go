package releases

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/roemer/plugman/pkg/common"
)

// The settings that are passed to every release source.
type ReleaseSourceSettings struct {
	Logger *slog.Logger
	// The api endpoint of the release host. Empty uses the public default of the host.
	Endpoint string
	// The shared http client, also holds the current access token.
	HttpClient *common.HttpClient
	// Gets a fallback token for a host when the http client has none.
	HostToken func(host string) string
}

type releaseSourceBase struct {
	sourceType common.ReleaseHostType
	logger     *slog.Logger
	settings   *ReleaseSourceSettings
}

func newReleaseSourceBase(sourceType common.ReleaseHostType, settings *ReleaseSourceSettings) *releaseSourceBase {
	return &releaseSourceBase{
		sourceType: sourceType,
		logger:     settings.Logger.With(slog.String("releaseHost", string(sourceType))),
		settings:   settings,
	}
}

// Creates the release source for the given type of release host.
func GetReleaseSource(sourceType common.ReleaseHostType, settings *ReleaseSourceSettings) (common.IReleaseSource, error) {
	switch sourceType {
	case common.RELEASE_HOST_TYPE_GITHUB, "":
		return NewGitHubReleaseSource(settings), nil
	case common.RELEASE_HOST_TYPE_GITEA:
		return NewGiteaReleaseSource(settings), nil
	case common.RELEASE_HOST_TYPE_GITLAB:
		return NewGitLabReleaseSource(settings), nil
	}
	return nil, fmt.Errorf("no release source defined for '%s'", sourceType)
}

func (s *releaseSourceBase) Type() common.ReleaseHostType {
	return s.sourceType
}

// Gets the token to use for the given host. The token of the shared client has precedence.
func (s *releaseSourceBase) token(host string) string {
	if token := s.settings.HttpClient.Token(); token != "" {
		return token
	}
	if s.settings.HostToken != nil {
		return s.settings.HostToken(host)
	}
	return ""
}

// Maps a failed request to the error taxonomy.
// 401 is a credential problem, 404 or a "Not Found" message means there is no matching release,
// anything else is treated as a transient registry problem.
func classifyFailure(pluginId string, statusCode int, message string, err error) error {
	switch {
	case statusCode == http.StatusUnauthorized:
		return fmt.Errorf("request for '%s' was rejected: %w", pluginId, common.ErrCredential)
	case statusCode == http.StatusNotFound || strings.EqualFold(message, "Not Found"):
		return fmt.Errorf("no public release found for '%s': %w", pluginId, common.ErrNotFound)
	case statusCode > 0:
		return fmt.Errorf("request for '%s' failed with status %d (%s): %w", pluginId, statusCode, common.ValueOrPlaceholder(message), common.ErrTransient)
	}
	return fmt.Errorf("request for '%s' failed: %v: %w", pluginId, err, common.ErrTransient)
}

// Gets the host the release source talks to, used to match host rules.
func EndpointHost(sourceType common.ReleaseHostType, endpoint string) string {
	fallback := common.DEFAULT_GITHUB_API_HOST
	switch sourceType {
	case common.RELEASE_HOST_TYPE_GITEA:
		fallback = "gitea.com"
	case common.RELEASE_HOST_TYPE_GITLAB:
		fallback = "gitlab.com"
	}
	if endpoint == "" {
		return fallback
	}
	parsedUrl, err := url.Parse(endpoint)
	if err != nil || parsedUrl.Host == "" {
		return fallback
	}
	return parsedUrl.Host
}
