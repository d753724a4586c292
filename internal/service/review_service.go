package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"photoboard/api/internal/archive"
	"photoboard/api/internal/cache"
	"photoboard/api/internal/catalog"
	"photoboard/api/internal/ids"
	"photoboard/api/internal/models"
	"photoboard/api/internal/repository"
)

// RecordStore is the persistence surface the review flow needs. The pgx
// repository implements it; tests substitute fakes.
type RecordStore interface {
	FindByExternalID(ctx context.Context, externalID string) (models.ImageRecord, error)
	Insert(ctx context.Context, record models.ImageRecord) error
	ListByStatus(ctx context.Context, status models.RecordStatus) ([]models.ImageRecord, error)
	UpdateStatus(ctx context.Context, externalID string, status models.RecordStatus, at time.Time) error
	Delete(ctx context.Context, externalID string) error
}

// Catalog is the remote image host surface the review flow needs.
type Catalog interface {
	ListAll(ctx context.Context) ([]catalog.RemoteImage, error)
	Delete(ctx context.Context, id string) error
}

// ResultCache invalidates and serves the cached approved listing. May be
// nil when redis is not wired for caching.
type ResultCache interface {
	GetApproved(ctx context.Context, out any) error
	SetApproved(ctx context.Context, value any) error
	Invalidate(ctx context.Context) error
}

// ImageView is the projection the dashboard consumes.
type ImageView struct {
	ID       string         `json:"id"`
	URL      string         `json:"url"`
	Metadata map[string]any `json:"meta"`
	Uploaded string         `json:"uploaded"`
	Variants []string       `json:"variants"`
}

// SyncSummary reports one reconciliation pass.
type SyncSummary struct {
	TotalRemote int
	Added       int
	Removed     int
}

func (s SyncSummary) Message() string {
	return fmt.Sprintf("Synced %d images. Added %d, Removed %d.", s.TotalRemote, s.Added, s.Removed)
}

type ReviewService struct {
	records RecordStore
	catalog Catalog
	archive *archive.Store
	results ResultCache
	log     zerolog.Logger
}

func NewReviewService(records RecordStore, cat Catalog, arch *archive.Store, results ResultCache, log zerolog.Logger) *ReviewService {
	return &ReviewService{
		records: records,
		catalog: cat,
		archive: arch,
		results: results,
		log:     log,
	}
}

// Sync reconciles the store against the remote catalog. Unknown remote ids
// become pending records; pending records absent remotely are pruned.
// Approved records are never inspected, so human decisions survive the
// image disappearing upstream. Records seen before are not refreshed from
// remote metadata. The pass is not transactional: the first store error
// aborts it and earlier mutations stand.
func (s *ReviewService) Sync(ctx context.Context) (SyncSummary, error) {
	remote, err := s.catalog.ListAll(ctx)
	if err != nil {
		return SyncSummary{}, err
	}

	remoteIDs := make(map[string]struct{}, len(remote))
	for _, img := range remote {
		remoteIDs[img.ID] = struct{}{}
	}

	summary := SyncSummary{TotalRemote: len(remote)}

	for _, img := range remote {
		_, err := s.records.FindByExternalID(ctx, img.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrRecordNotFound) {
			return summary, fmt.Errorf("lookup %s: %w", img.ID, err)
		}

		if err := s.records.Insert(ctx, newPendingRecord(img)); err != nil {
			return summary, fmt.Errorf("insert %s: %w", img.ID, err)
		}
		summary.Added++
	}

	pending, err := s.records.ListByStatus(ctx, models.StatusPending)
	if err != nil {
		return summary, fmt.Errorf("list pending: %w", err)
	}

	for _, record := range pending {
		if _, ok := remoteIDs[record.ExternalID]; ok {
			continue
		}
		if err := s.records.Delete(ctx, record.ExternalID); err != nil {
			return summary, fmt.Errorf("prune %s: %w", record.ExternalID, err)
		}
		summary.Removed++
	}

	s.invalidateResults(ctx)

	s.log.Info().
		Int("total_remote", summary.TotalRemote).
		Int("added", summary.Added).
		Int("removed", summary.Removed).
		Msg("catalog sync complete")

	return summary, nil
}

func newPendingRecord(img catalog.RemoteImage) models.ImageRecord {
	url := ""
	if len(img.Variants) > 0 {
		url = img.Variants[0]
	}
	metadata := img.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	return models.ImageRecord{
		ID:         ids.New(),
		ExternalID: img.ID,
		URL:        url,
		Metadata:   metadata,
		Status:     models.StatusPending,
		UploadedAt: img.UploadedAt,
	}
}

// Approve marks a record approved. Approving an id with no record creates
// one directly in the approved state: the workflow intentionally allows
// out-of-band approvals for images the catalog never listed.
func (s *ReviewService) Approve(ctx context.Context, externalID, url string, metadata map[string]any) (models.ImageRecord, error) {
	record, err := s.records.FindByExternalID(ctx, externalID)
	switch {
	case err == nil:
		if record.Status == models.StatusApproved {
			return record, nil
		}

		now := time.Now().UTC()
		if err := s.records.UpdateStatus(ctx, externalID, models.StatusApproved, now); err != nil {
			return models.ImageRecord{}, fmt.Errorf("approve %s: %w", externalID, err)
		}
		record.Status = models.StatusApproved
		record.ApprovedAt = &now

	case errors.Is(err, repository.ErrRecordNotFound):
		if metadata == nil {
			metadata = map[string]any{}
		}
		now := time.Now().UTC()
		record = models.ImageRecord{
			ID:         ids.New(),
			ExternalID: externalID,
			URL:        url,
			Metadata:   metadata,
			Status:     models.StatusApproved,
			UploadedAt: now,
			ApprovedAt: &now,
		}
		if err := s.records.Insert(ctx, record); err != nil {
			return models.ImageRecord{}, fmt.Errorf("approve %s: %w", externalID, err)
		}

	default:
		return models.ImageRecord{}, fmt.Errorf("lookup %s: %w", externalID, err)
	}

	s.invalidateResults(ctx)
	return record, nil
}

// Reject deletes the image upstream and removes the local record. Either
// side already being gone counts as success. When an archive store is
// configured the image bytes are copied out first, best effort.
func (s *ReviewService) Reject(ctx context.Context, externalID string) error {
	record, err := s.records.FindByExternalID(ctx, externalID)
	if err != nil && !errors.Is(err, repository.ErrRecordNotFound) {
		return fmt.Errorf("lookup %s: %w", externalID, err)
	}

	if err == nil {
		if archiveErr := s.archive.Archive(ctx, externalID, record.URL); archiveErr != nil {
			s.log.Warn().Err(archiveErr).Str("external_id", externalID).Msg("archive before reject failed")
		}
	}

	if err := s.catalog.Delete(ctx, externalID); err != nil && !errors.Is(err, catalog.ErrImageMissing) {
		return err
	}

	if err := s.records.Delete(ctx, externalID); err != nil && !errors.Is(err, repository.ErrRecordNotFound) {
		return fmt.Errorf("delete %s: %w", externalID, err)
	}

	s.invalidateResults(ctx)
	return nil
}

func (s *ReviewService) ListPending(ctx context.Context) ([]ImageView, error) {
	records, err := s.records.ListByStatus(ctx, models.StatusPending)
	if err != nil {
		return nil, err
	}
	return projectRecords(records), nil
}

func (s *ReviewService) ListApproved(ctx context.Context) ([]ImageView, error) {
	if s.results != nil {
		var cached []ImageView
		if err := s.results.GetApproved(ctx, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn().Err(err).Msg("approved list cache read failed")
		}
	}

	records, err := s.records.ListByStatus(ctx, models.StatusApproved)
	if err != nil {
		return nil, err
	}

	views := projectRecords(records)
	if s.results != nil {
		if err := s.results.SetApproved(ctx, views); err != nil {
			s.log.Warn().Err(err).Msg("approved list cache write failed")
		}
	}
	return views, nil
}

func (s *ReviewService) invalidateResults(ctx context.Context) {
	if s.results == nil {
		return
	}
	if err := s.results.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("approved list cache invalidation failed")
	}
}

func projectRecords(records []models.ImageRecord) []ImageView {
	views := make([]ImageView, 0, len(records))
	for _, record := range records {
		views = append(views, ImageView{
			ID:       record.ExternalID,
			URL:      record.URL,
			Metadata: record.Metadata,
			Uploaded: record.UploadedAt.UTC().Format(time.RFC3339),
			Variants: []string{record.URL},
		})
	}
	return views
}
