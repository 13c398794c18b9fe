// internal/service/merchant_service.go
package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/unclebandit/cpas-demos/internal/model"
	"github.com/unclebandit/cpas-demos/internal/repository"
)

// MerchantService backs the merchant platform: incoming requests, catalog
// sharing, and the brand self-service onboarding.
type MerchantService struct {
	CPASRepo repository.CPASRepositoryInterface
	Defaults AccountDefaults
	Log      logrus.FieldLogger
}

func (s *MerchantService) ValidateMerchantSetup(ctx context.Context, merchantBMID string) (*model.MerchantValidation, error) {
	result := &model.MerchantValidation{}

	user, err := s.CPASRepo.ValidateAccessToken(ctx)
	if err != nil {
		return result, fmt.Errorf("Invalid access token: %w", err)
	}
	result.TokenValid = true
	result.UserInfo = user

	info, err := s.CPASRepo.GetBusinessInfo(ctx, merchantBMID)
	if err != nil {
		return result, fmt.Errorf("Invalid merchant Business Manager: %w", err)
	}
	result.MerchantValid = true
	result.MerchantInfo = info

	return result, nil
}

// GetDashboardStats counts what the merchant dashboard shows. A failing
// lookup is logged and leaves its counter at zero.
func (s *MerchantService) GetDashboardStats(ctx context.Context, merchantBMID string) model.DashboardStats {
	var stats model.DashboardStats
	log := s.Log.WithField("merchant_bm_id", merchantBMID)

	if pending, err := s.GetPendingRequests(ctx, merchantBMID); err != nil {
		log.WithError(err).Warn("Failed to count pending requests")
	} else {
		stats.PendingRequests = len(pending)
	}

	if approved, err := s.CPASRepo.GetCollaborationRequests(ctx, merchantBMID, model.RequestApproved); err != nil {
		log.WithError(err).Warn("Failed to count approved requests")
	} else {
		stats.ApprovedRequests = len(approved)
	}

	if partners, err := s.GetActivePartners(ctx, merchantBMID); err != nil {
		log.WithError(err).Warn("Failed to count active partners")
	} else {
		stats.ActivePartners = len(partners)
	}

	if catalogs, err := s.GetCatalogSegments(ctx, merchantBMID); err != nil {
		log.WithError(err).Warn("Failed to count catalog segments")
	} else {
		stats.CatalogSegments = len(catalogs)
	}

	return stats
}

func (s *MerchantService) GetPendingRequests(ctx context.Context, merchantBMID string) ([]model.CollabRequest, error) {
	return s.CPASRepo.GetCollaborationRequests(ctx, merchantBMID, model.RequestPending)
}

func (s *MerchantService) GetAllRequests(ctx context.Context, merchantBMID string) ([]model.CollabRequest, error) {
	return s.CPASRepo.GetCollaborationRequests(ctx, merchantBMID, "")
}

func (s *MerchantService) ApproveRequest(ctx context.Context, requestID string) error {
	if err := s.CPASRepo.AcceptCollaborationRequest(ctx, requestID); err != nil {
		return err
	}
	s.Log.WithField("request_id", requestID).Info("Collaboration request approved")
	return nil
}

func (s *MerchantService) RejectRequest(ctx context.Context, requestID string) error {
	if err := s.CPASRepo.RejectCollaborationRequest(ctx, requestID); err != nil {
		return err
	}
	s.Log.WithField("request_id", requestID).Info("Collaboration request rejected")
	return nil
}

// BulkApprove approves each request in order; failures are counted, not fatal
func (s *MerchantService) BulkApprove(ctx context.Context, requestIDs []string) model.BulkResult {
	return bulk(requestIDs, "approved", func(id string) error { return s.ApproveRequest(ctx, id) })
}

func (s *MerchantService) BulkReject(ctx context.Context, requestIDs []string) model.BulkResult {
	return bulk(requestIDs, "rejected", func(id string) error { return s.RejectRequest(ctx, id) })
}

func bulk(ids []string, okStatus string, fn func(string) error) model.BulkResult {
	result := model.BulkResult{Total: len(ids), Details: make([]model.BulkDetail, 0, len(ids))}
	for _, id := range ids {
		if err := fn(id); err != nil {
			result.Failed++
			result.Details = append(result.Details, model.BulkDetail{ID: id, Status: "failed", Error: err.Error()})
			continue
		}
		result.Successful++
		result.Details = append(result.Details, model.BulkDetail{ID: id, Status: okStatus})
	}
	return result
}

func (s *MerchantService) GetActivePartners(ctx context.Context, merchantBMID string) ([]model.Partner, error) {
	return s.CPASRepo.GetCollaborativeAdsMerchants(ctx, merchantBMID)
}

func (s *MerchantService) GetCatalogSegments(ctx context.Context, merchantBMID string) ([]model.CatalogSegment, error) {
	return s.CPASRepo.GetOwnedCatalogSegments(ctx, merchantBMID)
}

func (s *MerchantService) ShareCatalogWithBrand(ctx context.Context, catalogID, brandBMID string) error {
	if err := s.CPASRepo.ShareCatalogSegment(ctx, catalogID, brandBMID); err != nil {
		return err
	}
	s.Log.WithFields(logrus.Fields{"catalog_id": catalogID, "brand_bm_id": brandBMID}).Info("Catalog shared")
	return nil
}

// Brand side. These run with the brand's own token set on ctx.

func (s *MerchantService) BrandSubmitRequest(ctx context.Context, brandBMID, merchantBMID, contactEmail, contactName string) (string, error) {
	return s.CPASRepo.SendCollaborationRequest(ctx, brandBMID, merchantBMID, contactEmail, contactName, model.RequesterBrand)
}

// BrandCheckRequestStatus finds the brand's request addressed to merchantBMID
func (s *MerchantService) BrandCheckRequestStatus(ctx context.Context, brandBMID, merchantBMID string) (*model.PartnershipStatus, error) {
	requests, err := s.CPASRepo.GetCollaborationRequests(ctx, brandBMID, "")
	if err != nil {
		return nil, err
	}
	for _, req := range requests {
		if req.ReceiverBusiness.ID != merchantBMID {
			continue
		}
		status := req.RequestStatus
		if status == "" {
			status = "unknown"
		}
		return &model.PartnershipStatus{Status: status, RequestID: req.ID, CreatedTime: req.CreatedTime}, nil
	}
	return &model.PartnershipStatus{
		Status:  model.PartnershipNotFound,
		Message: "No collaboration request found for this merchant",
	}, nil
}

func (s *MerchantService) BrandGetSharedCatalogs(ctx context.Context, brandBMID string) ([]model.CatalogSegment, error) {
	return s.CPASRepo.GetSharedCatalogSegments(ctx, brandBMID)
}

func (s *MerchantService) BrandCreateAdAccount(ctx context.Context, brandBMID, merchantName string) (string, error) {
	return s.CPASRepo.CreateAdAccount(ctx, brandBMID, "CPAS - "+merchantName, s.Defaults.TimezoneID, s.Defaults.Currency)
}

// BrandCreateCampaign creates an India-targeted campaign; dailyBudget is in the
// account currency's minor unit.
func (s *MerchantService) BrandCreateCampaign(ctx context.Context, adAccountID, catalogID, name string, dailyBudget int) (*model.CampaignResult, error) {
	return s.CPASRepo.CreateCampaignWithAdSet(ctx, repository.CampaignSpec{
		AdAccountID:      adAccountID,
		CatalogSegmentID: catalogID,
		CampaignName:     name,
		AdSetName:        name + " - Ad Set",
		DailyBudget:      dailyBudget,
		Targeting:        repository.CountryTargeting(repository.DefaultTargetingCountries),
	})
}
