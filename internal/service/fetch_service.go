package service

import (
	"context"

	"github.com/sirupsen/logrus"

	appErrors "github.com/unclebandit/cpas-demos/internal/errors"
	"github.com/unclebandit/cpas-demos/internal/model"
	"github.com/unclebandit/cpas-demos/internal/repository"
)

type FetchService struct {
	MediaRepo repository.MediaRepositoryInterface
	Log       logrus.FieldLogger
}

// FetchAdvertisableMedias pages through the account's advertisable medias.
// A failed page aborts the whole fetch. Metric lookups are best effort:
// a failure is logged and leaves the metric nil.
func (s *FetchService) FetchAdvertisableMedias(ctx context.Context, req model.FetchMediasRequest) ([]model.MediaRecord, error) {
	if req.IGAccountID == "" {
		return nil, appErrors.NewValidationError("ig_account_id", "ig_account_id is required")
	}

	log := s.Log.WithField("ig_account_id", req.IGAccountID)
	if req.CreatorUsername != "" {
		log = log.WithField("creator", req.CreatorUsername)
	}
	log.Info("Fetching advertisable medias...")

	medias, err := s.MediaRepo.ListAdvertisableMedias(ctx, req.IGAccountID, repository.ListMediasOptions{
		CreatorUsername:    req.CreatorUsername,
		OnlyWithPermission: req.OnlyWithPermission,
		Limit:              req.Limit,
		OnPage: func(kept, total int) {
			log.Infof("Fetched %d medias (Total: %d)", kept, total)
		},
	})
	if err != nil {
		return nil, err
	}

	if req.Limit > 0 && len(medias) == req.Limit {
		log.Infof("Reached limit of %d medias", req.Limit)
	}
	if len(medias) == 0 {
		log.Info("No advertisable medias found")
		return []model.MediaRecord{}, nil
	}

	records := make([]model.MediaRecord, 0, len(medias))
	for i, media := range medias {
		rec := model.MediaRecord{AdvertisableMedia: media}
		if req.IncludeMetrics && media.ID != "" {
			log.Infof("Fetching metrics for media %d/%d...", i+1, len(medias))
			rec.Metrics = s.fetchMetrics(ctx, log, media.ID)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *FetchService) fetchMetrics(ctx context.Context, log logrus.FieldLogger, mediaID string) *model.MediaMetrics {
	metrics := &model.MediaMetrics{}
	entry := log.WithField("media_id", mediaID)

	likes, comments, err := s.MediaRepo.GetMediaCounts(ctx, mediaID)
	if err != nil {
		entry.WithError(err).Warn("Failed to fetch basic metrics")
	} else {
		metrics.Likes, metrics.Comments = likes, comments
	}

	reach, impressions, saves, err := s.MediaRepo.GetMediaInsights(ctx, mediaID)
	if err != nil {
		entry.WithError(err).Warn("Failed to fetch insights")
	} else {
		metrics.Reach, metrics.Impressions, metrics.Saves = reach, impressions, saves
	}
	return metrics
}
