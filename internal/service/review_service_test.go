package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photoboard/api/internal/catalog"
	"photoboard/api/internal/models"
	"photoboard/api/internal/repository"
)

// memStore is an in-memory RecordStore keyed by external id, with
// optional error hooks to force failures mid-reconciliation.
type memStore struct {
	records   map[string]models.ImageRecord
	insertErr error
	deleteErr func(externalID string) error
	inserted  []string
	deleted   []string
	updated   []string
}

func newMemStore(seed ...models.ImageRecord) *memStore {
	s := &memStore{records: map[string]models.ImageRecord{}}
	for _, record := range seed {
		s.records[record.ExternalID] = record
	}
	return s
}

func (s *memStore) FindByExternalID(_ context.Context, externalID string) (models.ImageRecord, error) {
	record, ok := s.records[externalID]
	if !ok {
		return models.ImageRecord{}, repository.ErrRecordNotFound
	}
	return record, nil
}

func (s *memStore) Insert(_ context.Context, record models.ImageRecord) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	if _, ok := s.records[record.ExternalID]; ok {
		return repository.ErrDuplicateRecord
	}
	s.records[record.ExternalID] = record
	s.inserted = append(s.inserted, record.ExternalID)
	return nil
}

func (s *memStore) ListByStatus(_ context.Context, status models.RecordStatus) ([]models.ImageRecord, error) {
	var out []models.ImageRecord
	for _, record := range s.records {
		if record.Status == status {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *memStore) UpdateStatus(_ context.Context, externalID string, status models.RecordStatus, at time.Time) error {
	record, ok := s.records[externalID]
	if !ok {
		return repository.ErrRecordNotFound
	}
	record.Status = status
	if status == models.StatusApproved {
		record.ApprovedAt = &at
	}
	s.records[externalID] = record
	s.updated = append(s.updated, externalID)
	return nil
}

func (s *memStore) Delete(_ context.Context, externalID string) error {
	if s.deleteErr != nil {
		if err := s.deleteErr(externalID); err != nil {
			return err
		}
	}
	if _, ok := s.records[externalID]; !ok {
		return repository.ErrRecordNotFound
	}
	delete(s.records, externalID)
	s.deleted = append(s.deleted, externalID)
	return nil
}

type fakeCatalog struct {
	_ListAll func(ctx context.Context) ([]catalog.RemoteImage, error)
	_Delete  func(ctx context.Context, id string) error
}

func (f fakeCatalog) ListAll(ctx context.Context) ([]catalog.RemoteImage, error) {
	return f._ListAll(ctx)
}

func (f fakeCatalog) Delete(ctx context.Context, id string) error {
	if f._Delete == nil {
		return nil
	}
	return f._Delete(ctx, id)
}

func newService(store *memStore, cat Catalog) *ReviewService {
	return NewReviewService(store, cat, nil, nil, zerolog.Nop())
}

func remoteListing(images ...catalog.RemoteImage) fakeCatalog {
	return fakeCatalog{
		_ListAll: func(context.Context) ([]catalog.RemoteImage, error) {
			return images, nil
		},
	}
}

func pendingRecord(externalID string) models.ImageRecord {
	return models.ImageRecord{
		ID:         "rec_" + externalID,
		ExternalID: externalID,
		URL:        "https://img.example/" + externalID,
		Metadata:   map[string]any{},
		Status:     models.StatusPending,
		UploadedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSyncInsertsUnseenImagesAsPending(t *testing.T) {
	uploaded := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newMemStore()
	svc := newService(store, remoteListing(catalog.RemoteImage{
		ID:         "a",
		Variants:   []string{"https://img.example/a/public", "https://img.example/a/thumb"},
		Metadata:   map[string]any{"caption": "sunset"},
		UploadedAt: uploaded,
	}))

	summary, err := svc.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SyncSummary{TotalRemote: 1, Added: 1, Removed: 0}, summary)

	record, err := store.FindByExternalID(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, record.Status)
	assert.Equal(t, "https://img.example/a/public", record.URL)
	assert.Equal(t, map[string]any{"caption": "sunset"}, record.Metadata)
	assert.Equal(t, uploaded, record.UploadedAt)
}

func TestSyncDefaultsMissingVariantsAndMetadata(t *testing.T) {
	store := newMemStore()
	svc := newService(store, remoteListing(catalog.RemoteImage{
		ID:         "bare",
		UploadedAt: time.Now().UTC(),
	}))

	_, err := svc.Sync(context.Background())
	require.NoError(t, err)

	record, err := store.FindByExternalID(context.Background(), "bare")
	require.NoError(t, err)
	assert.Equal(t, "", record.URL)
	assert.Equal(t, map[string]any{}, record.Metadata)
}

func TestSyncDoesNotRefreshExistingRecords(t *testing.T) {
	existing := pendingRecord("a")
	existing.URL = "https://img.example/a/original"
	store := newMemStore(existing)

	svc := newService(store, remoteListing(catalog.RemoteImage{
		ID:         "a",
		Variants:   []string{"https://img.example/a/renamed"},
		Metadata:   map[string]any{"caption": "changed"},
		UploadedAt: time.Now().UTC(),
	}))

	summary, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Added)

	record, _ := store.FindByExternalID(context.Background(), "a")
	assert.Equal(t, "https://img.example/a/original", record.URL)
	assert.Empty(t, record.Metadata)
}

func TestSyncPrunesPendingRecordsGoneRemotely(t *testing.T) {
	store := newMemStore(pendingRecord("a"), pendingRecord("b"))
	svc := newService(store, remoteListing(catalog.RemoteImage{ID: "a", UploadedAt: time.Now()}))

	summary, err := svc.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SyncSummary{TotalRemote: 1, Added: 0, Removed: 1}, summary)

	_, err = store.FindByExternalID(context.Background(), "a")
	assert.NoError(t, err)
	_, err = store.FindByExternalID(context.Background(), "b")
	assert.ErrorIs(t, err, repository.ErrRecordNotFound)
}

func TestSyncNeverTouchesApprovedRecords(t *testing.T) {
	approvedAt := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	approved := pendingRecord("a")
	approved.Status = models.StatusApproved
	approved.ApprovedAt = &approvedAt
	store := newMemStore(approved)

	// Remote catalog no longer lists "a" at all.
	svc := newService(store, remoteListing())

	summary, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SyncSummary{TotalRemote: 0, Added: 0, Removed: 0}, summary)

	record, err := store.FindByExternalID(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, record.Status)
	assert.Equal(t, &approvedAt, record.ApprovedAt)
}

func TestSyncFailsWholesaleWhenCatalogUnavailable(t *testing.T) {
	store := newMemStore(pendingRecord("a"))
	svc := newService(store, fakeCatalog{
		_ListAll: func(context.Context) ([]catalog.RemoteImage, error) {
			return nil, catalog.ErrMissingCredentials
		},
	})

	_, err := svc.Sync(context.Background())
	assert.ErrorIs(t, err, catalog.ErrMissingCredentials)

	// Nothing was mutated.
	assert.Empty(t, store.inserted)
	assert.Empty(t, store.deleted)
}

func TestSyncAbortsOnFirstStoreFailure(t *testing.T) {
	store := newMemStore(pendingRecord("x"), pendingRecord("y"))
	boom := errors.New("connection reset")
	store.deleteErr = func(string) error { return boom }

	svc := newService(store, remoteListing())

	summary, err := svc.Sync(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, summary.Removed)

	// Both records survive because the first delete failed.
	assert.Len(t, store.records, 2)
}

func TestSyncSummaryMessage(t *testing.T) {
	summary := SyncSummary{TotalRemote: 7, Added: 2, Removed: 1}
	assert.Equal(t, "Synced 7 images. Added 2, Removed 1.", summary.Message())
}

func TestApproveTransitionsPendingRecord(t *testing.T) {
	store := newMemStore(pendingRecord("a"))
	svc := newService(store, remoteListing())

	record, err := svc.Approve(context.Background(), "a", "https://img.example/a", nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusApproved, record.Status)
	require.NotNil(t, record.ApprovedAt)

	stored, _ := store.FindByExternalID(context.Background(), "a")
	assert.Equal(t, models.StatusApproved, stored.Status)
}

func TestApproveIsIdempotent(t *testing.T) {
	store := newMemStore(pendingRecord("a"))
	svc := newService(store, remoteListing())

	first, err := svc.Approve(context.Background(), "a", "https://img.example/a", nil)
	require.NoError(t, err)

	second, err := svc.Approve(context.Background(), "a", "https://img.example/a", nil)
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.ApprovedAt, second.ApprovedAt)
	// Only the first call touched the store.
	assert.Len(t, store.updated, 1)
}

func TestApproveCreatesRecordForUnknownID(t *testing.T) {
	store := newMemStore()
	svc := newService(store, remoteListing())

	record, err := svc.Approve(context.Background(), "manual", "https://img.example/manual", map[string]any{"source": "out-of-band"})
	require.NoError(t, err)

	assert.Equal(t, models.StatusApproved, record.Status)
	assert.NotNil(t, record.ApprovedAt)

	stored, err := store.FindByExternalID(context.Background(), "manual")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, stored.Status)
	assert.Equal(t, map[string]any{"source": "out-of-band"}, stored.Metadata)
}

func TestRejectDeletesRemoteAndLocal(t *testing.T) {
	store := newMemStore(pendingRecord("a"))
	var remoteDeleted []string
	svc := newService(store, fakeCatalog{
		_ListAll: func(context.Context) ([]catalog.RemoteImage, error) { return nil, nil },
		_Delete: func(_ context.Context, id string) error {
			remoteDeleted = append(remoteDeleted, id)
			return nil
		},
	})

	require.NoError(t, svc.Reject(context.Background(), "a"))

	assert.Equal(t, []string{"a"}, remoteDeleted)
	_, err := store.FindByExternalID(context.Background(), "a")
	assert.ErrorIs(t, err, repository.ErrRecordNotFound)
}

func TestRejectIsIdempotent(t *testing.T) {
	store := newMemStore()
	svc := newService(store, fakeCatalog{
		_ListAll: func(context.Context) ([]catalog.RemoteImage, error) { return nil, nil },
		_Delete: func(context.Context, string) error {
			return catalog.ErrImageMissing
		},
	})

	// Neither side knows the id; reject still succeeds.
	assert.NoError(t, svc.Reject(context.Background(), "gone"))
}

func TestRejectSurfacesUpstreamFailures(t *testing.T) {
	store := newMemStore(pendingRecord("a"))
	svc := newService(store, fakeCatalog{
		_ListAll: func(context.Context) ([]catalog.RemoteImage, error) { return nil, nil },
		_Delete: func(context.Context, string) error {
			return &catalog.UpstreamError{StatusCode: 502}
		},
	})

	err := svc.Reject(context.Background(), "a")
	var upstream *catalog.UpstreamError
	assert.ErrorAs(t, err, &upstream)

	// The local record is kept when the remote delete hard-fails.
	_, findErr := store.FindByExternalID(context.Background(), "a")
	assert.NoError(t, findErr)
}

func TestListPendingRoundTripsUploadedAt(t *testing.T) {
	uploaded := time.Date(2024, 1, 1, 8, 30, 0, 0, time.UTC)
	store := newMemStore()
	svc := newService(store, remoteListing(catalog.RemoteImage{
		ID:         "a",
		Variants:   []string{"https://img.example/a/public"},
		UploadedAt: uploaded,
	}))

	_, err := svc.Sync(context.Background())
	require.NoError(t, err)

	views, err := svc.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)

	assert.Equal(t, "a", views[0].ID)
	assert.Equal(t, "2024-01-01T08:30:00Z", views[0].Uploaded)
	assert.Equal(t, []string{"https://img.example/a/public"}, views[0].Variants)
}

func TestApproveThenListsMoveRecordBetweenQueues(t *testing.T) {
	store := newMemStore()
	svc := newService(store, remoteListing(catalog.RemoteImage{
		ID:         "a",
		Variants:   []string{"https://img.example/a/public"},
		UploadedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}))

	_, err := svc.Sync(context.Background())
	require.NoError(t, err)

	pending, err := svc.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = svc.Approve(context.Background(), "a", pending[0].URL, nil)
	require.NoError(t, err)

	pending, err = svc.ListPending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)

	approved, err := svc.ListApproved(context.Background())
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "a", approved[0].ID)
}
