package releases

import (
	"context"
	"errors"
	"fmt"

	"github.com/roemer/plugman/pkg/common"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

type GitLabReleaseSource struct {
	*releaseSourceBase
}

func NewGitLabReleaseSource(settings *ReleaseSourceSettings) common.IReleaseSource {
	return &GitLabReleaseSource{
		releaseSourceBase: newReleaseSourceBase(common.RELEASE_HOST_TYPE_GITLAB, settings),
	}
}

// Gets the newest release of the project. GitLab sorts the releases by their release date.
func (s *GitLabReleaseSource) GetLatestRelease(ctx context.Context, pluginId string) (*common.ReleaseInfo, error) {
	if err := common.ValidatePluginId(pluginId); err != nil {
		return nil, err
	}
	client, err := s.createClient()
	if err != nil {
		return nil, err
	}
	releases, resp, err := client.Releases.ListReleases(pluginId, &gitlab.ListReleasesOptions{
		ListOptions: gitlab.ListOptions{PerPage: 1},
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, s.convertError(pluginId, resp, err)
	}
	if len(releases) == 0 {
		return nil, fmt.Errorf("no public release found for '%s': %w", pluginId, common.ErrNotFound)
	}
	return convertGitLabRelease(releases[0]), nil
}

func (s *GitLabReleaseSource) GetReleaseByTag(ctx context.Context, pluginId string, tag string) (*common.ReleaseInfo, error) {
	if err := common.ValidatePluginId(pluginId); err != nil {
		return nil, err
	}
	client, err := s.createClient()
	if err != nil {
		return nil, err
	}
	release, resp, err := client.Releases.GetRelease(pluginId, tag, gitlab.WithContext(ctx))
	if err != nil {
		return nil, s.convertError(pluginId, resp, err)
	}
	return convertGitLabRelease(release), nil
}

////////////////////////////////////////////////////////////
// Internal
////////////////////////////////////////////////////////////

func (s *GitLabReleaseSource) createClient() (*gitlab.Client, error) {
	endpoint := "https://gitlab.com/api/v4"
	if s.settings.Endpoint != "" {
		endpoint = s.settings.Endpoint
	}
	token := s.token(EndpointHost(common.RELEASE_HOST_TYPE_GITLAB, endpoint))
	return gitlab.NewClient(token, gitlab.WithBaseURL(endpoint), gitlab.WithHTTPClient(s.settings.HttpClient.Client()))
}

func (s *GitLabReleaseSource) convertError(pluginId string, resp *gitlab.Response, err error) error {
	statusCode := 0
	if resp != nil && resp.Response != nil {
		statusCode = resp.StatusCode
	}
	message := ""
	var errorResponse *gitlab.ErrorResponse
	if errors.As(err, &errorResponse) {
		message = errorResponse.Message
	}
	return classifyFailure(pluginId, statusCode, message, err)
}

func convertGitLabRelease(release *gitlab.Release) *common.ReleaseInfo {
	releaseInfo := &common.ReleaseInfo{
		TagName: release.TagName,
		Assets:  []*common.ReleaseAsset{},
	}
	if release.ReleasedAt != nil {
		releaseInfo.PublishedAt = *release.ReleasedAt
	} else if release.CreatedAt != nil {
		releaseInfo.PublishedAt = *release.CreatedAt
	}
	for _, link := range release.Assets.Links {
		downloadUrl := link.DirectAssetURL
		if downloadUrl == "" {
			downloadUrl = link.URL
		}
		releaseInfo.Assets = append(releaseInfo.Assets, &common.ReleaseAsset{
			Name: link.Name,
			Url:  downloadUrl,
		})
	}
	return releaseInfo
}
