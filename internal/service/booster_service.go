// internal/service/booster_service.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	appErrors "github.com/unclebandit/cpas-demos/internal/errors"
	"github.com/unclebandit/cpas-demos/internal/model"
	"github.com/unclebandit/cpas-demos/internal/repository"
)

// RunRecorder receives the header, every row outcome and the summary of a run.
// Recording failures are logged, never surfaced to the row.
type RunRecorder interface {
	StartRun(ctx context.Context, run *model.Run) error
	RecordRow(ctx context.Context, ev model.RowResultEvent) error
	FinishRun(ctx context.Context, runID string, summary model.Summary) error
}

type BoosterService struct {
	MediaRepo repository.MediaRepositoryInterface
	Recorder  RunRecorder
	Log       logrus.FieldLogger
}

type CreateAdsResult struct {
	RunID   string            `json:"run_id"`
	Rows    []model.RowResult `json:"rows"`
	Summary model.Summary     `json:"summary"`
}

var requiredColumns = []string{model.ColCTAType, model.ColLink, model.ColAdName, model.ColAdSetID}

// CreateAds runs every row through eligibility, video upload, creative and ad
// creation, in input order. A row failure never stops the batch.
func (s *BoosterService) CreateAds(ctx context.Context, req model.CreateAdsRequest, rows []model.InputRow, source string) (*CreateAdsResult, error) {
	switch {
	case req.IGAccountID == "":
		return nil, appErrors.NewValidationError("ig_account_id", "ig_account_id is required")
	case req.AdAccountID == "":
		return nil, appErrors.NewValidationError("ad_account_id", "ad_account_id is required for create mode")
	case req.FacebookPageID == "":
		return nil, appErrors.NewValidationError("facebook_page_id", "facebook_page_id is required for create mode")
	}

	run := &model.Run{ID: uuid.NewString(), Mode: "create", Source: source, StartedAt: time.Now()}
	log := s.Log.WithField("run_id", run.ID)
	s.record(log, func() error { return s.Recorder.StartRun(ctx, run) })

	log.Infof("Processing %d rows...", len(rows))

	result := &CreateAdsResult{RunID: run.ID, Rows: make([]model.RowResult, 0, len(rows))}
	for i, row := range rows {
		adName := row.Get(model.ColAdName)
		if adName == "" {
			adName = "Unknown"
		}
		rowLog := log.WithFields(logrus.Fields{"row": i + 1, "ad_name": adName})
		rowLog.Infof("[%d/%d] Processing: %s", i+1, len(rows), adName)

		res := s.processRow(ctx, req, i+1, row)
		if res.Status == model.StatusSuccess {
			result.Summary.Succeeded++
			rowLog.WithField("published_ad_id", res.PublishedAdID).Info("Ad created")
		} else {
			result.Summary.Failed++
			rowLog.Warnf("Error: %s", res.Error)
		}
		result.Rows = append(result.Rows, res)

		ev := res.Event(run.ID)
		s.record(rowLog, func() error { return s.Recorder.RecordRow(ctx, ev) })
	}
	result.Summary.Total = len(result.Rows)

	s.record(log, func() error { return s.Recorder.FinishRun(ctx, run.ID, result.Summary) })
	log.WithFields(logrus.Fields{
		"total":      result.Summary.Total,
		"successful": result.Summary.Succeeded,
		"failed":     result.Summary.Failed,
	}).Info("Summary")

	return result, nil
}

func (s *BoosterService) record(log logrus.FieldLogger, fn func() error) {
	if s.Recorder == nil {
		return
	}
	if err := fn(); err != nil {
		log.WithError(err).Warn("Failed to record run ledger entry")
	}
}

// processRow returns the outcome of one row. Ids are set as soon as their
// stage succeeds so a later failure, or a panic, keeps them.
func (s *BoosterService) processRow(ctx context.Context, req model.CreateAdsRequest, index int, row model.InputRow) (res model.RowResult) {
	res = model.RowResult{Index: index, Input: row, Status: model.StatusFailed}

	defer func() {
		if r := recover(); r != nil {
			res.Status = model.StatusFailed
			res.Error = fmt.Sprintf("Unexpected error: %v", r)
		}
	}()

	fail := func(msg string) model.RowResult {
		res.Status = model.StatusFailed
		res.Error = msg
		return res
	}

	var missing []string
	for _, col := range requiredColumns {
		if row.Get(col) == "" {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fail("Missing required fields: " + strings.Join(missing, ", "))
	}

	permalink := row.Get(model.ColPermalink)
	adCode := row.Get(model.ColAdCode)
	if permalink == "" && adCode == "" {
		return fail("Either permalink or ad_code must be provided")
	}

	media, msg := s.resolveMedia(ctx, req.IGAccountID, permalink, adCode)
	if msg != "" {
		return fail(msg)
	}

	videoID, err := s.MediaRepo.UploadVideo(ctx, req.AdAccountID, media.ID, adCode)
	if err != nil {
		return fail(err.Error())
	}
	res.VideoID = videoID

	creativeID, err := s.MediaRepo.CreateCreative(ctx, repository.CreativeParams{
		AdAccountID:    req.AdAccountID,
		FacebookPageID: req.FacebookPageID,
		IGAccountID:    req.IGAccountID,
		MediaID:        media.ID,
		AdCode:         adCode,
		CTAType:        row.Get(model.ColCTAType),
		Link:           row.Get(model.ColLink),
		AppLink:        row.Get(model.ColAppLink),
		ProductSetID:   row.Get(model.ColProductSetID),
	})
	if err != nil {
		return fail(err.Error())
	}
	res.CreativeID = creativeID

	adID, err := s.MediaRepo.CreateAd(ctx, req.AdAccountID, row.Get(model.ColAdName), row.Get(model.ColAdSetID), creativeID)
	if err != nil {
		return fail(err.Error())
	}
	res.PublishedAdID = adID

	res.Status = model.StatusSuccess
	res.Error = ""
	return res
}

// resolveMedia finds the media to boost. An ad code carries its own permission;
// a permalink needs has_permission_for_partnership_ad. A non-empty message is the row failure.
func (s *BoosterService) resolveMedia(ctx context.Context, igAccountID, permalink, adCode string) (*model.AdvertisableMedia, string) {
	var (
		media *model.AdvertisableMedia
		err   error
	)
	if adCode != "" {
		media, err = s.MediaRepo.GetEligibilityByAdCode(ctx, igAccountID, adCode)
	} else {
		shortcode, serr := ExtractShortcode(permalink)
		if serr != nil {
			return nil, serr.Error()
		}
		media, err = s.MediaRepo.GetEligibilityByShortcode(ctx, igAccountID, shortcode)
	}

	switch {
	case err != nil:
		return nil, err.Error()
	case media == nil:
		return nil, "Failed to fetch media eligibility"
	case adCode == "" && !media.HasPermission:
		return nil, "Media does not have permission for partnership ads"
	case len(media.EligibilityErrors) > 0:
		return nil, "Eligibility errors: " + strings.Join(media.EligibilityErrors, ", ")
	case media.ID == "":
		return nil, "Media ID not found in eligibility response"
	}

	s.Log.WithFields(logrus.Fields{"media_id": media.ID, "owner_id": media.OwnerID}).Debug("Eligibility confirmed")
	return media, ""
}
