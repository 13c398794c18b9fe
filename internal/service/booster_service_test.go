package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/cpas-demos/internal/errors"
	"github.com/unclebandit/cpas-demos/internal/logger"
	"github.com/unclebandit/cpas-demos/internal/model"
	"github.com/unclebandit/cpas-demos/internal/service"
)

var createReq = model.CreateAdsRequest{IGAccountID: "ig_1", AdAccountID: "123", FacebookPageID: "page_1"}

func boosterRow(values map[string]string) model.InputRow {
	base := map[string]string{
		model.ColCTAType: "SHOP_NOW",
		model.ColLink:    "https://shop.example.com",
		model.ColAdName:  "Ad",
		model.ColAdSetID: "adset_1",
	}
	for k, v := range values {
		base[k] = v
	}
	return model.NewInputRow(nil, base)
}

func happyRepo() *MockMediaRepo {
	return &MockMediaRepo{
		Eligibility: &model.AdvertisableMedia{ID: "media_1", HasPermission: true},
		VideoID:     "video_1",
		CreativeID:  "creative_1",
		AdID:        "ad_1",
	}
}

func newBooster(repo *MockMediaRepo, rec service.RunRecorder) *service.BoosterService {
	return &service.BoosterService{MediaRepo: repo, Recorder: rec, Log: logger.Discard()}
}

func TestCreateAdsRejectsMissingBatchIDs(t *testing.T) {
	repo := happyRepo()
	svc := newBooster(repo, nil)

	_, err := svc.CreateAds(context.Background(), model.CreateAdsRequest{IGAccountID: "ig_1"}, nil, "test")
	var ve *appErrors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "ad_account_id", ve.Field)
	assert.Empty(t, repo.Calls)
}

func TestCreateAdsRowWithoutMediaReferenceMakesNoCalls(t *testing.T) {
	repo := happyRepo()
	res, err := newBooster(repo, nil).CreateAds(context.Background(), createReq, []model.InputRow{boosterRow(nil)}, "test")
	require.NoError(t, err)

	require.Len(t, res.Rows, 1)
	assert.Equal(t, model.StatusFailed, res.Rows[0].Status)
	assert.Equal(t, "Either permalink or ad_code must be provided", res.Rows[0].Error)
	assert.Empty(t, repo.Calls)
}

func TestCreateAdsMissingRequiredFields(t *testing.T) {
	repo := happyRepo()
	row := model.NewInputRow(nil, map[string]string{model.ColAdCode: "code", model.ColLink: "https://x"})

	res, err := newBooster(repo, nil).CreateAds(context.Background(), createReq, []model.InputRow{row}, "test")
	require.NoError(t, err)
	assert.Equal(t, "Missing required fields: cta_type, ad_name, ad_set_id", res.Rows[0].Error)
	assert.Empty(t, repo.Calls)
}

func TestCreateAdsCreativeFailureKeepsVideoID(t *testing.T) {
	repo := happyRepo()
	repo.CreativeErr = errors.New("Creative creation failed: API Error 100: Invalid parameter")

	res, err := newBooster(repo, nil).CreateAds(context.Background(), createReq,
		[]model.InputRow{boosterRow(map[string]string{model.ColPermalink: "https://www.instagram.com/reel/abc123/"})}, "test")
	require.NoError(t, err)

	row := res.Rows[0]
	assert.Equal(t, model.StatusFailed, row.Status)
	assert.Equal(t, "video_1", row.VideoID)
	assert.Empty(t, row.CreativeID)
	assert.Empty(t, row.PublishedAdID)
	assert.Contains(t, row.Error, "Creative creation failed")
	assert.Equal(t, []string{"eligibility_shortcode", "upload", "creative"}, repo.Calls)
	assert.Equal(t, "abc123", repo.Shortcode)
}

func TestCreateAdsWithAdCodeSucceedsWithoutPermission(t *testing.T) {
	repo := happyRepo()
	repo.Eligibility.HasPermission = false

	res, err := newBooster(repo, nil).CreateAds(context.Background(), createReq,
		[]model.InputRow{boosterRow(map[string]string{model.ColAdCode: "boost_code", model.ColProductSetID: "ps_1"})}, "test")
	require.NoError(t, err)

	row := res.Rows[0]
	assert.Equal(t, model.StatusSuccess, row.Status)
	assert.Empty(t, row.Error)
	assert.Equal(t, "video_1", row.VideoID)
	assert.Equal(t, "creative_1", row.CreativeID)
	assert.Equal(t, "ad_1", row.PublishedAdID)
	assert.Equal(t, []string{"eligibility_ad_code", "upload", "creative", "ad"}, repo.Calls)
	assert.Equal(t, "boost_code", repo.Creative.AdCode)
	assert.Equal(t, "ps_1", repo.Creative.ProductSetID)
	assert.Equal(t, model.Summary{Total: 1, Succeeded: 1}, res.Summary)
}

func TestCreateAdsPermalinkNeedsPermission(t *testing.T) {
	repo := happyRepo()
	repo.Eligibility.HasPermission = false

	res, _ := newBooster(repo, nil).CreateAds(context.Background(), createReq,
		[]model.InputRow{boosterRow(map[string]string{model.ColPermalink: "https://instagram.com/p/xyz/"})}, "test")
	assert.Equal(t, "Media does not have permission for partnership ads", res.Rows[0].Error)
	assert.Equal(t, []string{"eligibility_shortcode"}, repo.Calls)
}

func TestCreateAdsEligibilityFailures(t *testing.T) {
	cases := []struct {
		name string
		repo *MockMediaRepo
		want string
	}{
		{"no data", &MockMediaRepo{}, "Failed to fetch media eligibility"},
		{"error text", &MockMediaRepo{EligErr: errors.New("API Error 10: no access")}, "API Error 10: no access"},
		{"eligibility errors", &MockMediaRepo{Eligibility: &model.AdvertisableMedia{
			ID: "m", HasPermission: true, EligibilityErrors: []string{"too old", "not public"},
		}}, "Eligibility errors: too old, not public"},
		{"no id", &MockMediaRepo{Eligibility: &model.AdvertisableMedia{HasPermission: true}}, "Media ID not found in eligibility response"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := newBooster(tc.repo, nil).CreateAds(context.Background(), createReq,
				[]model.InputRow{boosterRow(map[string]string{model.ColPermalink: "abc"})}, "test")
			require.NoError(t, err)
			assert.Equal(t, model.StatusFailed, res.Rows[0].Status)
			assert.Equal(t, tc.want, res.Rows[0].Error)
			assert.NotContains(t, tc.repo.Calls, "upload")
		})
	}
}

func TestCreateAdsStoriesRowFailsAlone(t *testing.T) {
	repo := happyRepo()
	rows := []model.InputRow{
		boosterRow(map[string]string{model.ColPermalink: "https://instagram.com/stories/someone/123/"}),
		boosterRow(map[string]string{model.ColAdCode: "code"}),
	}

	res, err := newBooster(repo, nil).CreateAds(context.Background(), createReq, rows, "test")
	require.NoError(t, err)
	assert.Equal(t, appErrors.ErrStoriesUnsupported.Error(), res.Rows[0].Error)
	assert.Equal(t, model.StatusSuccess, res.Rows[1].Status)
}

func TestCreateAdsRecoversPanics(t *testing.T) {
	repo := happyRepo()
	repo.PanicOn = "ad"

	res, err := newBooster(repo, nil).CreateAds(context.Background(), createReq,
		[]model.InputRow{boosterRow(map[string]string{model.ColAdCode: "code"})}, "test")
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, res.Rows[0].Status)
	assert.Equal(t, "Unexpected error: kaboom", res.Rows[0].Error)
	assert.Equal(t, "creative_1", res.Rows[0].CreativeID)
}

func TestCreateAdsKeepsRowCountAndOrder(t *testing.T) {
	repo := happyRepo()
	rows := []model.InputRow{
		boosterRow(map[string]string{model.ColAdName: "first", model.ColAdCode: "a"}),
		boosterRow(map[string]string{model.ColAdName: "second"}),
		boosterRow(map[string]string{model.ColAdName: "third", model.ColPermalink: "https://instagram.com/stories/x/1"}),
		boosterRow(map[string]string{model.ColAdName: "fourth", model.ColAdCode: "b"}),
	}
	rec := &MockRecorder{}

	res, err := newBooster(repo, rec).CreateAds(context.Background(), createReq, rows, "input.csv")
	require.NoError(t, err)

	require.Len(t, res.Rows, len(rows))
	for i, r := range res.Rows {
		assert.Equal(t, i+1, r.Index)
		assert.Equal(t, rows[i].Get(model.ColAdName), r.Input.Get(model.ColAdName))
	}
	assert.Equal(t, model.Summary{Total: 4, Succeeded: 2, Failed: 2}, res.Summary)

	require.Len(t, rec.Runs, 1)
	assert.Equal(t, res.RunID, rec.Runs[0].ID)
	assert.Equal(t, "input.csv", rec.Runs[0].Source)
	require.Len(t, rec.Rows, 4)
	assert.Equal(t, "second", rec.Rows[1].AdName)
	assert.Equal(t, &res.Summary, rec.Summary)
}

func TestCreateAdsIgnoresRecorderFailures(t *testing.T) {
	repo := happyRepo()
	rec := &MockRecorder{StartErr: errors.New("broker down")}

	res, err := newBooster(repo, rec).CreateAds(context.Background(), createReq,
		[]model.InputRow{boosterRow(map[string]string{model.ColAdCode: "code"})}, "test")
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuccess, res.Rows[0].Status)
	assert.Len(t, rec.Rows, 1)
}
