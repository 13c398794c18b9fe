package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/unclebandit/cpas-demos/internal/graph"
	"github.com/unclebandit/cpas-demos/internal/model"
)

const (
	mediaFields   = "eligibility_errors,owner_id,permalink,id,has_permission_for_partnership_ad"
	mediaPageSize = 25
)

// MediaRepositoryInterface covers the partnership ads calls: media lookup and
// the three mutations that turn a media into a paused ad.
type MediaRepositoryInterface interface {
	ListAdvertisableMedias(ctx context.Context, igAccountID string, opts ListMediasOptions) ([]model.AdvertisableMedia, error)
	GetEligibilityByAdCode(ctx context.Context, igAccountID, adCode string) (*model.AdvertisableMedia, error)
	GetEligibilityByShortcode(ctx context.Context, igAccountID, shortcode string) (*model.AdvertisableMedia, error)
	GetMediaCounts(ctx context.Context, mediaID string) (likes, comments *int64, err error)
	GetMediaInsights(ctx context.Context, mediaID string) (reach, impressions, saves *int64, err error)

	UploadVideo(ctx context.Context, adAccountID, mediaID, adCode string) (string, error)
	CreateCreative(ctx context.Context, p CreativeParams) (string, error)
	CreateAd(ctx context.Context, adAccountID, name, adSetID, creativeID string) (string, error)
}

type ListMediasOptions struct {
	CreatorUsername    string
	OnlyWithPermission bool
	// Limit of kept medias, 0 for all
	Limit  int
	OnPage func(kept, total int)
}

// CreativeParams is everything the adcreatives call needs.
// AdCode, when set, replaces the media id as the attribution source.
type CreativeParams struct {
	AdAccountID    string
	FacebookPageID string
	IGAccountID    string
	MediaID        string
	AdCode         string
	CTAType        string
	Link           string
	AppLink        string
	ProductSetID   string
}

type MediaRepository struct {
	Client *graph.Client
	// CreativeVersion overrides the API version of the adcreatives call
	CreativeVersion string
}

func (r *MediaRepository) ListAdvertisableMedias(ctx context.Context, igAccountID string, opts ListMediasOptions) ([]model.AdvertisableMedia, error) {
	params := map[string]any{
		"fields": mediaFields,
		"limit":  mediaPageSize,
	}
	if opts.CreatorUsername != "" {
		params["creator_username"] = opts.CreatorUsername
	}

	popts := graph.PaginateOptions[model.AdvertisableMedia]{
		Limit:  opts.Limit,
		OnPage: opts.OnPage,
	}
	if opts.OnlyWithPermission {
		popts.Filter = func(m model.AdvertisableMedia) bool { return m.HasPermission }
	}

	return graph.Paginate(ctx, r.Client, igAccountID+"/branded_content_advertisable_medias", params, popts)
}

func (r *MediaRepository) GetEligibilityByAdCode(ctx context.Context, igAccountID, adCode string) (*model.AdvertisableMedia, error) {
	return r.eligibility(ctx, igAccountID, map[string]any{
		"fields":  mediaFields,
		"ad_code": adCode,
	})
}

func (r *MediaRepository) GetEligibilityByShortcode(ctx context.Context, igAccountID, shortcode string) (*model.AdvertisableMedia, error) {
	return r.eligibility(ctx, igAccountID, map[string]any{
		"fields":     mediaFields,
		"permalinks": []string{shortcode},
	})
}

// eligibility returns the first matching media, or nil when the lookup came back empty
func (r *MediaRepository) eligibility(ctx context.Context, igAccountID string, params map[string]any) (*model.AdvertisableMedia, error) {
	var page graph.Page[model.AdvertisableMedia]
	err := r.Client.DoInto(ctx, graph.Request{
		Endpoint: igAccountID + "/branded_content_advertisable_medias",
		Params:   params,
	}, &page)
	if err != nil {
		return nil, err
	}
	if len(page.Data) == 0 {
		return nil, nil
	}
	return &page.Data[0], nil
}

func (r *MediaRepository) GetMediaCounts(ctx context.Context, mediaID string) (*int64, *int64, error) {
	var counts struct {
		LikeCount     *int64 `json:"like_count"`
		CommentsCount *int64 `json:"comments_count"`
	}
	err := r.Client.DoInto(ctx, graph.Request{
		Endpoint: mediaID,
		Params:   map[string]any{"fields": "like_count,comments_count"},
	}, &counts)
	if err != nil {
		return nil, nil, err
	}
	return counts.LikeCount, counts.CommentsCount, nil
}

func (r *MediaRepository) GetMediaInsights(ctx context.Context, mediaID string) (*int64, *int64, *int64, error) {
	var insights struct {
		Data []struct {
			Name   string `json:"name"`
			Values []struct {
				Value json.RawMessage `json:"value"`
			} `json:"values"`
		} `json:"data"`
	}
	err := r.Client.DoInto(ctx, graph.Request{
		Endpoint: mediaID + "/insights",
		Params:   map[string]any{"metric": "reach,impressions,saved"},
	}, &insights)
	if err != nil {
		return nil, nil, nil, err
	}

	var reach, impressions, saves *int64
	for _, metric := range insights.Data {
		if len(metric.Values) == 0 {
			continue
		}
		var v int64
		if err := json.Unmarshal(metric.Values[0].Value, &v); err != nil {
			continue
		}
		switch metric.Name {
		case "reach":
			reach = &v
		case "impressions":
			impressions = &v
		case "saved":
			saves = &v
		}
	}
	return reach, impressions, saves, nil
}

func (r *MediaRepository) UploadVideo(ctx context.Context, adAccountID, mediaID, adCode string) (string, error) {
	params := map[string]any{"source_instagram_media_id": mediaID}
	if adCode != "" {
		params["partnership_ad_ad_code"] = adCode
		params["is_partnership_ad"] = true
	}

	resp, err := r.Client.Post(ctx, ActPrefixed(adAccountID)+"/advideos", params)
	if err != nil {
		return "", fmt.Errorf("Video upload failed: %w", err)
	}
	if resp.ID() == "" {
		return "", errors.New("Video upload: 'id' not found in response data")
	}
	return resp.ID(), nil
}

func (r *MediaRepository) CreateCreative(ctx context.Context, p CreativeParams) (string, error) {
	ctaValue := map[string]any{"link": p.Link}
	if p.AppLink != "" {
		ctaValue["app_link"] = p.AppLink
	}

	params := map[string]any{
		"object_id":                 p.FacebookPageID,
		"facebook_branded_content":  map[string]any{"sponsor_page_id": p.FacebookPageID},
		"instagram_branded_content": map[string]any{"sponsor_id": p.IGAccountID},
		"call_to_action":            map[string]any{"type": p.CTAType, "value": ctaValue},
	}

	switch {
	case p.AdCode != "":
		params["branded_content"] = map[string]any{"instagram_boost_post_access_token": p.AdCode}
	case p.MediaID != "":
		params["source_instagram_media_id"] = p.MediaID
	default:
		return "", errors.New("Creative creation failed: ad_code or source_instagram_media_id must be passed")
	}

	if p.ProductSetID != "" {
		params["degrees_of_freedom_spec"] = map[string]any{
			"creative_features_spec": map[string]any{
				"product_extensions": map[string]any{"enroll_status": "OPT_IN"},
			},
		}
		params["creative_sourcing_spec"] = map[string]any{"associated_product_set_id": p.ProductSetID}
	}

	resp, err := r.Client.Do(ctx, graph.Request{
		Method:   "POST",
		Endpoint: ActPrefixed(p.AdAccountID) + "/adcreatives",
		Params:   params,
		Version:  r.CreativeVersion,
	})
	if err != nil {
		return "", fmt.Errorf("Creative creation failed: %w", err)
	}
	if resp.ID() == "" {
		return "", errors.New("Creative creation: 'id' not found in response data")
	}
	return resp.ID(), nil
}

func (r *MediaRepository) CreateAd(ctx context.Context, adAccountID, name, adSetID, creativeID string) (string, error) {
	resp, err := r.Client.Post(ctx, ActPrefixed(adAccountID)+"/ads", map[string]any{
		"status":   StatusPaused,
		"name":     name,
		"adset_id": adSetID,
		"creative": map[string]any{"creative_id": creativeID},
	})
	if err != nil {
		return "", fmt.Errorf("Ad creation failed for ad '%s' (ad_set_id: %s): %w", name, adSetID, err)
	}
	if resp.ID() == "" {
		return "", fmt.Errorf("Ad creation: 'id' not found in response data for ad name '%s' (ad_set_id: %s)", name, adSetID)
	}
	return resp.ID(), nil
}
