package releases

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/roemer/plugman/pkg/common"
	"github.com/stretchr/testify/assert"
)

func TestSelectAssets(t *testing.T) {
	assert := assert.New(t)

	testSelectAssets(assert, []string{"Plugin.dll"}, "Plugin.dll", "", nil)
	testSelectAssets(assert, []string{"Plugin.dll", "dependencies.zip"}, "Plugin.dll", "dependencies.zip", nil)
	testSelectAssets(assert, []string{"Plugin.DLL", "Dependencies.ZIP"}, "Plugin.DLL", "Dependencies.ZIP", nil)
	testSelectAssets(assert, []string{"Plugin.dll", "Plugin-nw.dll"}, "Plugin-nw.dll", "", nil)
	testSelectAssets(assert, []string{"A.dll", "B.dll", "Plugin-nw.dll"}, "Plugin-nw.dll", "", nil)
	testSelectAssets(assert, []string{"Plugin-nw.dll", "A.dll", "B.dll"}, "Plugin-nw.dll", "", nil)
	testSelectAssets(assert, []string{"A.dll", "B.dll"}, "", "", common.ErrAmbiguousBinary)
	testSelectAssets(assert, []string{"A-nw.dll", "B-nw.dll"}, "", "", common.ErrAmbiguousNwBinary)
	testSelectAssets(assert, []string{"readme.md", "dependencies.zip"}, "", "", common.ErrNoBinary)
}

func testSelectAssets(assert *assert.Assertions, names []string, expectedPlugin string, expectedDependencies string, expectedErr error) {
	assets := []*common.ReleaseAsset{}
	for _, name := range names {
		assets = append(assets, &common.ReleaseAsset{Name: name, Url: name})
	}
	pluginUrl, dependenciesUrl, err := SelectAssets(assets)
	if expectedErr != nil {
		assert.ErrorIs(err, expectedErr, names)
		return
	}
	assert.NoError(err, names)
	assert.Equal(expectedPlugin, pluginUrl, names)
	assert.Equal(expectedDependencies, dependenciesUrl, names)
}

func TestBuildVersionRecord(t *testing.T) {
	assert := assert.New(t)

	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	published := now.Add(-time.Hour)

	_, err := BuildVersionRecord(&common.ReleaseInfo{}, now)
	assert.ErrorIs(err, common.ErrNoRelease)
	_, err = BuildVersionRecord(&common.ReleaseInfo{TagName: "v1", Message: "Not Found"}, now)
	assert.ErrorIs(err, common.ErrNotFound)
	_, err = BuildVersionRecord(&common.ReleaseInfo{TagName: "v1"}, now)
	assert.ErrorIs(err, common.ErrNoAssets)

	record, err := BuildVersionRecord(&common.ReleaseInfo{
		TagName:     "v1.2.0",
		ReleaseId:   42,
		PublishedAt: published,
		Assets:      []*common.ReleaseAsset{{Name: "Plugin.dll", Url: "http://host/Plugin.dll"}},
	}, now)
	assert.NoError(err)
	assert.Equal("v1.2.0", record.Version)
	assert.Equal(int64(42), record.ReleaseId)
	assert.Equal(published, record.PublishmentTime)
	assert.Equal(now, record.LastRefreshed)
	assert.Equal("http://host/Plugin.dll", record.DllDownloadUrl)
	assert.False(record.HasDependencies())
}

func TestGitHubResolver(t *testing.T) {
	assert := assert.New(t)

	var lastAuthorization string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastAuthorization = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/repos/owner/plugin/releases/latest":
			fmt.Fprint(w, `{"id": 7, "tag_name": "v2.0.0", "published_at": "2025-01-01T10:00:00Z", "assets": [
				{"name": "Plugin.dll", "url": "http://api/repos/owner/plugin/releases/assets/11", "browser_download_url": "http://download/Plugin.dll"},
				{"name": "Plugin-nw.dll", "url": "http://api/repos/owner/plugin/releases/assets/12", "browser_download_url": "http://download/Plugin-nw.dll"},
				{"name": "dependencies.zip", "url": "http://api/repos/owner/plugin/releases/assets/13", "browser_download_url": "http://download/dependencies.zip"}]}`)
		case "/repos/owner/plugin/releases/tags/v1.0.0":
			fmt.Fprint(w, `{"id": 3, "tag_name": "v1.0.0", "assets": [{"name": "Plugin.dll", "url": "http://api/repos/owner/plugin/releases/assets/5", "browser_download_url": "http://download/old.dll"}]}`)
		case "/repos/owner/empty/releases/latest":
			fmt.Fprint(w, `{"id": 4, "tag_name": "v1.0.0", "assets": []}`)
		case "/repos/owner/secret/releases/latest":
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message": "Bad credentials"}`)
		case "/repos/owner/broken/releases/latest":
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"message": "Server Error"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message": "Not Found"}`)
		}
	}))
	defer server.Close()

	settings := newTestSettings(server.URL)
	settings.HttpClient.SetToken("secret-token")
	source, err := GetReleaseSource(common.RELEASE_HOST_TYPE_GITHUB, settings)
	assert.NoError(err)
	resolver := NewResolver(settings.Logger, source)
	ctx := context.Background()

	record, err := resolver.ResolveLatest(ctx, "owner/plugin", true)
	assert.NoError(err)
	assert.Equal("v2.0.0", record.Version)
	assert.Equal(int64(7), record.ReleaseId)
	assert.Equal("http://api/repos/owner/plugin/releases/assets/12", record.DllDownloadUrl)
	assert.Equal("http://api/repos/owner/plugin/releases/assets/13", record.DependenciesDownloadUrl)
	assert.Equal("Bearer secret-token", lastAuthorization)

	record, err = resolver.ResolveTag(ctx, "owner/plugin", "v1.0.0", true)
	assert.NoError(err)
	assert.Equal("v1.0.0", record.Version)
	assert.Equal("http://api/repos/owner/plugin/releases/assets/5", record.DllDownloadUrl)

	_, err = resolver.ResolveLatest(ctx, "owner/empty", true)
	assert.ErrorIs(err, common.ErrNoAssets)
	_, err = resolver.ResolveLatest(ctx, "owner/secret", true)
	assert.ErrorIs(err, common.ErrCredential)
	_, err = resolver.ResolveLatest(ctx, "owner/broken", false)
	assert.ErrorIs(err, common.ErrTransient)
	_, err = resolver.ResolveLatest(ctx, "owner/missing", false)
	assert.ErrorIs(err, common.ErrNotFound)
	_, err = resolver.ResolveLatest(ctx, "not-an-id", false)
	assert.ErrorIs(err, common.ErrInvalidPluginId)
}

func TestGiteaReleaseSource(t *testing.T) {
	assert := assert.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/repos/owner/plugin/releases/latest":
			fmt.Fprint(w, `{"id": 11, "tag_name": "1.1.0", "published_at": "2025-02-01T10:00:00Z", "assets": [
				{"name": "Plugin.dll", "browser_download_url": "http://download/Plugin.dll"}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message": "Not Found"}`)
		}
	}))
	defer server.Close()

	source, err := GetReleaseSource(common.RELEASE_HOST_TYPE_GITEA, newTestSettings(server.URL))
	assert.NoError(err)
	assert.Equal(common.RELEASE_HOST_TYPE_GITEA, source.Type())

	release, err := source.GetLatestRelease(context.Background(), "owner/plugin")
	assert.NoError(err)
	assert.Equal("1.1.0", release.TagName)
	assert.Equal(int64(11), release.ReleaseId)
	assert.Len(release.Assets, 1)
	assert.Equal("http://download/Plugin.dll", release.Assets[0].Url)

	_, err = source.GetReleaseByTag(context.Background(), "owner/plugin", "0.0.1")
	assert.ErrorIs(err, common.ErrNotFound)
}

func TestGitLabReleaseSource(t *testing.T) {
	assert := assert.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v4/projects/owner/plugin/releases":
			fmt.Fprint(w, `[{"tag_name": "v3.0.0", "released_at": "2025-03-01T10:00:00Z", "assets": {"links": [
				{"name": "Plugin-nw.dll", "url": "http://download/Plugin-nw.dll", "direct_asset_url": "http://direct/Plugin-nw.dll"}]}}]`)
		default:
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message": "401 Unauthorized"}`)
		}
	}))
	defer server.Close()

	source, err := GetReleaseSource(common.RELEASE_HOST_TYPE_GITLAB, newTestSettings(server.URL+"/api/v4"))
	assert.NoError(err)

	release, err := source.GetLatestRelease(context.Background(), "owner/plugin")
	assert.NoError(err)
	assert.Equal("v3.0.0", release.TagName)
	assert.Equal("http://direct/Plugin-nw.dll", release.Assets[0].Url)

	_, err = source.GetReleaseByTag(context.Background(), "owner/plugin", "v1.0.0")
	assert.ErrorIs(err, common.ErrCredential)
}

func TestUnknownReleaseSource(t *testing.T) {
	assert := assert.New(t)

	_, err := GetReleaseSource("svn", newTestSettings(""))
	assert.Error(err)
}

func newTestSettings(endpoint string) *ReleaseSourceSettings {
	return &ReleaseSourceSettings{
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Endpoint:   endpoint,
		HttpClient: common.NewHttpClient(5*time.Second, "plugman-test"),
	}
}

func TestEndpointHost(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("api.github.com", EndpointHost(common.RELEASE_HOST_TYPE_GITHUB, ""))
	assert.Equal("gitea.com", EndpointHost(common.RELEASE_HOST_TYPE_GITEA, ""))
	assert.Equal("gitlab.com", EndpointHost(common.RELEASE_HOST_TYPE_GITLAB, ""))
	assert.Equal("git.example.com", EndpointHost(common.RELEASE_HOST_TYPE_GITEA, "https://git.example.com/api/v1"))
	assert.Equal("127.0.0.1:8080", EndpointHost(common.RELEASE_HOST_TYPE_GITHUB, "http://127.0.0.1:8080"))
	assert.Equal("gitlab.com", EndpointHost(common.RELEASE_HOST_TYPE_GITLAB, "::not a url"))
}
