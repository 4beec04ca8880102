package releases

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/google/go-github/v80/github"
	"github.com/roemer/plugman/pkg/common"
)

type GitHubReleaseSource struct {
	*releaseSourceBase
}

func NewGitHubReleaseSource(settings *ReleaseSourceSettings) common.IReleaseSource {
	return &GitHubReleaseSource{
		releaseSourceBase: newReleaseSourceBase(common.RELEASE_HOST_TYPE_GITHUB, settings),
	}
}

func (s *GitHubReleaseSource) GetLatestRelease(ctx context.Context, pluginId string) (*common.ReleaseInfo, error) {
	if err := common.ValidatePluginId(pluginId); err != nil {
		return nil, err
	}
	owner, repository := common.SplitPluginId(pluginId)
	client, err := s.createClient()
	if err != nil {
		return nil, err
	}
	release, resp, err := client.Repositories.GetLatestRelease(ctx, owner, repository)
	if err != nil {
		return nil, s.convertError(pluginId, resp, err)
	}
	return convertGitHubRelease(release), nil
}

func (s *GitHubReleaseSource) GetReleaseByTag(ctx context.Context, pluginId string, tag string) (*common.ReleaseInfo, error) {
	if err := common.ValidatePluginId(pluginId); err != nil {
		return nil, err
	}
	owner, repository := common.SplitPluginId(pluginId)
	client, err := s.createClient()
	if err != nil {
		return nil, err
	}
	release, resp, err := client.Repositories.GetReleaseByTag(ctx, owner, repository, tag)
	if err != nil {
		return nil, s.convertError(pluginId, resp, err)
	}
	return convertGitHubRelease(release), nil
}

////////////////////////////////////////////////////////////
// Internal
////////////////////////////////////////////////////////////

func (s *GitHubReleaseSource) createClient() (*github.Client, error) {
	client := github.NewClient(s.settings.HttpClient.Client())
	if userAgent := s.settings.HttpClient.UserAgent(); userAgent != "" {
		client.UserAgent = userAgent
	}
	if s.settings.Endpoint != "" {
		endpoint := s.settings.Endpoint
		if !strings.HasSuffix(endpoint, "/") {
			endpoint += "/"
		}
		baseUrl, err := url.Parse(endpoint)
		if err != nil {
			return nil, err
		}
		client.BaseURL = baseUrl
	}
	// Add the token to the client
	if token := s.token(EndpointHost(common.RELEASE_HOST_TYPE_GITHUB, s.settings.Endpoint)); token != "" {
		client = client.WithAuthToken(token)
	}
	return client, nil
}

func (s *GitHubReleaseSource) convertError(pluginId string, resp *github.Response, err error) error {
	statusCode := 0
	if resp != nil && resp.Response != nil {
		statusCode = resp.StatusCode
	}
	message := ""
	var errorResponse *github.ErrorResponse
	if errors.As(err, &errorResponse) {
		message = errorResponse.Message
	}
	return classifyFailure(pluginId, statusCode, message, err)
}

func convertGitHubRelease(release *github.RepositoryRelease) *common.ReleaseInfo {
	releaseInfo := &common.ReleaseInfo{
		TagName:     release.GetTagName(),
		ReleaseId:   release.GetID(),
		PublishedAt: release.GetPublishedAt().Time,
		Assets:      make([]*common.ReleaseAsset, 0, len(release.Assets)),
	}
	for _, asset := range release.Assets {
		releaseInfo.Assets = append(releaseInfo.Assets, &common.ReleaseAsset{
			Name: asset.GetName(),
			// The api url serves private assets with the token and an octet-stream accept header
			Url: asset.GetURL(),
		})
	}
	return releaseInfo
}
