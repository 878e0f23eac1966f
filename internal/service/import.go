package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/apolzek/neosearch/internal/models"
	"github.com/apolzek/neosearch/internal/registryhash"
	"github.com/apolzek/neosearch/internal/repository"
)

// Source tells the pipeline where a batch came from. Fetched content is
// treated identically to an uploaded payload once retrieved.
type Source string

const (
	SourceUpload Source = "upload"
	SourceURL    Source = "url"
)

// ImportBatch validates, deduplicates and atomically commits a batch of
// candidate registries for one owner. Every check runs before any write;
// on failure nothing is persisted.
func (s *RegistryService) ImportBatch(ctx context.Context, ownerID string, payload []byte, source Source) (int, error) {
	if ownerID == "" {
		return 0, ErrUnauthenticated
	}

	// Elements decode leniently: exported batches carry extra keys
	// (source, username) that are not part of the registry shape.
	var items []models.ImportItem
	if err := json.Unmarshal(payload, &items); err != nil {
		return 0, fmt.Errorf("%w: expected a JSON array of registries: %v", ErrMalformedPayload, err)
	}
	if len(items) == 0 {
		return 0, nil
	}

	// Cardinality and byte size are independent ceilings; either trips.
	if len(items) > s.opts.ImportMaxItems {
		return 0, fmt.Errorf("%w: %d items exceeds the limit of %d", ErrPayloadTooLarge, len(items), s.opts.ImportMaxItems)
	}
	if len(payload) > s.opts.ImportMaxBytes {
		return 0, fmt.Errorf("%w: %d bytes exceeds the limit of %d", ErrPayloadTooLarge, len(payload), s.opts.ImportMaxBytes)
	}

	for i, item := range items {
		if err := s.validateItem(item, i); err != nil {
			return 0, err
		}
	}

	inserted, err := s.commitItems(ctx, ownerID, items)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Batch imported",
		zap.String("ownerID", ownerID),
		zap.String("source", string(source)),
		zap.Int("count", len(inserted)))

	return len(inserted), nil
}

// ImportFromURL fetches a JSON batch with a bounded timeout and runs it
// through the same pipeline. Fetch failures are never retried here.
func (s *RegistryService) ImportFromURL(ctx context.Context, ownerID, sourceURL string) (int, error) {
	if ownerID == "" {
		return 0, ErrUnauthenticated
	}
	if err := validateAbsoluteURL(sourceURL); err != nil {
		return 0, &FieldError{Index: -1, Field: "url", Reason: err.Error()}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("%w: unexpected status %d from %s", ErrFetchFailed, resp.StatusCode, sourceURL)
	}

	// Read one byte past the ceiling so an oversized body trips
	// PayloadTooLarge instead of silently truncating.
	payload, err := io.ReadAll(io.LimitReader(resp.Body, int64(s.opts.ImportMaxBytes)+1))
	if err != nil {
		return 0, fmt.Errorf("%w: reading response body: %v", ErrFetchFailed, err)
	}

	return s.ImportBatch(ctx, ownerID, payload, SourceURL)
}

// Add persists a single registry as a degenerate one-element import: same
// validation, dedup, quota and rate discipline.
func (s *RegistryService) Add(ctx context.Context, ownerID string, item models.ImportItem) (models.Registry, error) {
	if ownerID == "" {
		return models.Registry{}, ErrUnauthenticated
	}
	if err := s.validateItem(item, -1); err != nil {
		return models.Registry{}, err
	}

	inserted, err := s.commitItems(ctx, ownerID, []models.ImportItem{item})
	if err != nil {
		return models.Registry{}, err
	}
	return inserted[0], nil
}

// commitItems is the write phase: intra-batch dedup, stored-set dedup, quota
// and rate checks under the owner's lock, then one atomic insert.
func (s *RegistryService) commitItems(ctx context.Context, ownerID string, items []models.ImportItem) ([]models.Registry, error) {
	hashes := make([]string, len(items))
	tagSets := make([][]string, len(items))
	seen := make(map[string]int, len(items))
	for i, item := range items {
		tagSets[i] = normalizeTags(item.Tags)
		hashes[i] = registryhash.Sum(s.opts.HashAlgorithm, item.URL, item.Description, tagSets[i], item.Category)
		if _, dup := seen[hashes[i]]; dup {
			return nil, &DuplicateError{Index: i}
		}
		seen[hashes[i]] = i
	}

	mu := s.ownerLock(ownerID)
	mu.Lock()
	defer mu.Unlock()

	existing, err := s.store.ListActiveByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list own registries: %w", err)
	}

	existingByHash := make(map[string]string, len(existing))
	for _, reg := range existing {
		existingByHash[reg.ContentHash] = reg.ID
	}
	for i, hash := range hashes {
		if conflictID, dup := existingByHash[hash]; dup {
			return nil, &DuplicateError{Index: i, ConflictID: conflictID}
		}
	}

	if len(existing)+len(items) > s.opts.QuotaPerOwner {
		return nil, fmt.Errorf("%w: %d active registries plus %d new exceeds the limit of %d",
			ErrQuotaExceeded, len(existing), len(items), s.opts.QuotaPerOwner)
	}

	allowed, err := s.limiter.Allow(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("check import rate: %w", err)
	}
	if !allowed {
		return nil, ErrRateLimited
	}

	now := s.now()
	records := make([]models.Registry, len(items))
	for i, item := range items {
		public := true
		if item.Public != nil {
			public = *item.Public
		}
		records[i] = models.Registry{
			ID:           uuid.New().String(),
			OwnerID:      ownerID,
			URL:          item.URL,
			Description:  item.Description,
			Tags:         tagSets[i],
			Category:     item.Category,
			Favorite:     item.Favorite,
			Public:       public,
			VisitCount:   0,
			ContentHash:  hashes[i],
			DateAdded:    now,
			DateModified: now,
		}
	}

	if err := s.store.InsertBatch(ctx, records); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, &DuplicateError{Index: -1}
		}
		return nil, fmt.Errorf("insert batch: %w", err)
	}

	return records, nil
}

func (s *RegistryService) validateItem(item models.ImportItem, index int) error {
	if err := validateAbsoluteURL(item.URL); err != nil {
		return &FieldError{Index: index, Field: "url", Reason: err.Error()}
	}
	if utf8.RuneCountInString(item.URL) > models.MaxURLLength {
		return &FieldError{Index: index, Field: "url", Reason: fmt.Sprintf("exceeds %d characters", models.MaxURLLength)}
	}
	if utf8.RuneCountInString(item.Description) > models.MaxDescriptionLength {
		return &FieldError{Index: index, Field: "description", Reason: fmt.Sprintf("exceeds %d characters", models.MaxDescriptionLength)}
	}
	if len(item.Tags) > models.MaxTags {
		return &FieldError{Index: index, Field: "tags", Reason: fmt.Sprintf("more than %d tags", models.MaxTags)}
	}
	for _, tag := range item.Tags {
		if utf8.RuneCountInString(tag) > models.MaxTagLength {
			return &FieldError{Index: index, Field: "tags", Reason: fmt.Sprintf("tag exceeds %d characters", models.MaxTagLength)}
		}
	}
	if utf8.RuneCountInString(item.Category) > models.MaxCategoryLength {
		return &FieldError{Index: index, Field: "category", Reason: fmt.Sprintf("exceeds %d characters", models.MaxCategoryLength)}
	}
	if item.Category != "" && len(s.categories) > 0 {
		if _, ok := s.categories[strings.ToLower(strings.TrimSpace(item.Category))]; !ok {
			return &FieldError{Index: index, Field: "category", Reason: fmt.Sprintf("%q is not a known category", item.Category)}
		}
	}
	return nil
}

func validateAbsoluteURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("url is required")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %v", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("url must use http or https")
	}
	if parsed.Host == "" {
		return errors.New("url must be absolute")
	}
	return nil
}
