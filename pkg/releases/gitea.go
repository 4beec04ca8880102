package releases

import (
	"context"

	"code.gitea.io/sdk/gitea"
	"github.com/roemer/plugman/pkg/common"
)

type GiteaReleaseSource struct {
	*releaseSourceBase
}

func NewGiteaReleaseSource(settings *ReleaseSourceSettings) common.IReleaseSource {
	return &GiteaReleaseSource{
		releaseSourceBase: newReleaseSourceBase(common.RELEASE_HOST_TYPE_GITEA, settings),
	}
}

func (s *GiteaReleaseSource) GetLatestRelease(ctx context.Context, pluginId string) (*common.ReleaseInfo, error) {
	if err := common.ValidatePluginId(pluginId); err != nil {
		return nil, err
	}
	owner, repository := common.SplitPluginId(pluginId)
	client, err := s.createClient(ctx)
	if err != nil {
		return nil, err
	}
	release, resp, err := client.GetLatestRelease(owner, repository)
	if err != nil {
		return nil, s.convertError(pluginId, resp, err)
	}
	return convertGiteaRelease(release), nil
}

func (s *GiteaReleaseSource) GetReleaseByTag(ctx context.Context, pluginId string, tag string) (*common.ReleaseInfo, error) {
	if err := common.ValidatePluginId(pluginId); err != nil {
		return nil, err
	}
	owner, repository := common.SplitPluginId(pluginId)
	client, err := s.createClient(ctx)
	if err != nil {
		return nil, err
	}
	release, resp, err := client.GetReleaseByTag(owner, repository, tag)
	if err != nil {
		return nil, s.convertError(pluginId, resp, err)
	}
	return convertGiteaRelease(release), nil
}

////////////////////////////////////////////////////////////
// Internal
////////////////////////////////////////////////////////////

func (s *GiteaReleaseSource) createClient(ctx context.Context) (*gitea.Client, error) {
	endpoint := "https://gitea.com"
	if s.settings.Endpoint != "" {
		endpoint = s.settings.Endpoint
	}
	options := []gitea.ClientOption{
		gitea.SetContext(ctx),
		gitea.SetHTTPClient(s.settings.HttpClient.Client()),
		// Skip the server version lookup, releases are available on all supported versions
		gitea.SetGiteaVersion(""),
	}
	if userAgent := s.settings.HttpClient.UserAgent(); userAgent != "" {
		options = append(options, gitea.SetUserAgent(userAgent))
	}
	if token := s.token(EndpointHost(common.RELEASE_HOST_TYPE_GITEA, endpoint)); token != "" {
		options = append(options, gitea.SetToken(token))
	}
	return gitea.NewClient(endpoint, options...)
}

func (s *GiteaReleaseSource) convertError(pluginId string, resp *gitea.Response, err error) error {
	statusCode := 0
	if resp != nil && resp.Response != nil {
		statusCode = resp.StatusCode
	}
	return classifyFailure(pluginId, statusCode, "", err)
}

func convertGiteaRelease(release *gitea.Release) *common.ReleaseInfo {
	releaseInfo := &common.ReleaseInfo{
		TagName:     release.TagName,
		ReleaseId:   release.ID,
		PublishedAt: release.PublishedAt,
		Assets:      make([]*common.ReleaseAsset, 0, len(release.Attachments)),
	}
	for _, attachment := range release.Attachments {
		releaseInfo.Assets = append(releaseInfo.Assets, &common.ReleaseAsset{
			Name: attachment.Name,
			Url:  attachment.DownloadURL,
		})
	}
	return releaseInfo
}
