package releases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/roemer/plugman/pkg/common"
)

// Resolves releases of plugins into version records.
type Resolver struct {
	logger *slog.Logger
	source common.IReleaseSource
	now    func() time.Time
}

func NewResolver(logger *slog.Logger, source common.IReleaseSource) *Resolver {
	return &Resolver{
		logger: logger.With(slog.String("component", "resolver")),
		source: source,
		now:    time.Now,
	}
}

// Resolves the latest public release of the plugin.
func (r *Resolver) ResolveLatest(ctx context.Context, pluginId string, interactive bool) (*common.VersionRecord, error) {
	return r.resolve(ctx, pluginId, "", interactive)
}

// Resolves the release with the given tag.
func (r *Resolver) ResolveTag(ctx context.Context, pluginId string, tag string, interactive bool) (*common.VersionRecord, error) {
	return r.resolve(ctx, pluginId, tag, interactive)
}

// Builds a version record out of the release. Fails if the release has no tag,
// no assets or no unambiguous plugin binary.
func BuildVersionRecord(release *common.ReleaseInfo, refreshedAt time.Time) (*common.VersionRecord, error) {
	if release == nil || release.TagName == "" {
		return nil, common.ErrNoRelease
	}
	if strings.EqualFold(release.Message, "Not Found") {
		return nil, common.ErrNotFound
	}
	if len(release.Assets) == 0 {
		return nil, common.ErrNoAssets
	}
	pluginUrl, dependenciesUrl, err := SelectAssets(release.Assets)
	if err != nil {
		return nil, err
	}
	return &common.VersionRecord{
		Version:                 release.TagName,
		ReleaseId:               release.ReleaseId,
		PublishmentTime:         release.PublishedAt,
		LastRefreshed:           refreshedAt,
		DllDownloadUrl:          pluginUrl,
		DependenciesDownloadUrl: dependenciesUrl,
	}, nil
}

// Picks the plugin binary and the optional dependency bundle out of the assets.
// A binary with the NW API suffix is preferred over all others, more than one of those is ambiguous.
// Without such a binary, exactly one binary must exist.
func SelectAssets(assets []*common.ReleaseAsset) (string, string, error) {
	pluginUrl := ""
	dependenciesUrl := ""
	designatedNw := false
	nonNwCount := 0
	for _, asset := range assets {
		if asset == nil {
			continue
		}
		lowerName := strings.ToLower(asset.Name)
		if strings.HasSuffix(lowerName, common.PLUGIN_FILE_EXTENSION) {
			isNw := strings.HasSuffix(lowerName, common.PLUGIN_NW_API_SUFFIX)
			if designatedNw {
				if !isNw {
					continue
				}
				return "", "", common.ErrAmbiguousNwBinary
			}
			if isNw {
				nonNwCount = 0
			} else {
				nonNwCount++
			}
			pluginUrl = asset.Url
			designatedNw = isNw
		} else if strings.EqualFold(asset.Name, common.DEPENDENCIES_ASSET_NAME) {
			dependenciesUrl = asset.Url
		}
	}
	if pluginUrl == "" {
		return "", "", common.ErrNoBinary
	}
	if nonNwCount > 1 {
		return "", "", common.ErrAmbiguousBinary
	}
	return pluginUrl, dependenciesUrl, nil
}

////////////////////////////////////////////////////////////
// Internal
////////////////////////////////////////////////////////////

func (r *Resolver) resolve(ctx context.Context, pluginId string, tag string, interactive bool) (*common.VersionRecord, error) {
	var release *common.ReleaseInfo
	var err error
	if tag == "" {
		r.logger.Debug(fmt.Sprintf("Resolving the latest release of '%s'", pluginId))
		release, err = r.source.GetLatestRelease(ctx, pluginId)
	} else {
		r.logger.Debug(fmt.Sprintf("Resolving release '%s' of '%s'", tag, pluginId))
		release, err = r.source.GetReleaseByTag(ctx, pluginId, tag)
	}
	if err == nil {
		var record *common.VersionRecord
		if record, err = BuildVersionRecord(release, r.now()); err == nil {
			r.logger.Debug(fmt.Sprintf("Resolved '%s' to version '%s'", pluginId, record.Version))
			return record, nil
		}
		err = fmt.Errorf("failed resolving '%s': %w", pluginId, err)
	}
	r.reportFailure(pluginId, err, interactive)
	return nil, err
}

func (r *Resolver) reportFailure(pluginId string, err error, interactive bool) {
	switch {
	case errors.Is(err, common.ErrCredential):
		// Always reported, the user needs to act on it
		r.logger.Error(fmt.Sprintf("The registry rejected the access token while resolving '%s'. Set a valid token or clear it", pluginId))
	case !interactive:
		r.logger.Debug(err.Error())
	case errors.Is(err, common.ErrNotFound):
		r.logger.Info(fmt.Sprintf("No public release found for '%s'", pluginId))
	default:
		r.logger.Error(err.Error())
	}
}
