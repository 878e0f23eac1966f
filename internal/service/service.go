package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/apolzek/neosearch/internal/access"
	"github.com/apolzek/neosearch/internal/models"
	"github.com/apolzek/neosearch/internal/query"
	"github.com/apolzek/neosearch/internal/ratelimit"
	"github.com/apolzek/neosearch/internal/registryhash"
	"github.com/apolzek/neosearch/internal/repository"
	"github.com/apolzek/neosearch/internal/search"
)

// Options tunes the registry service. Zero values fall back to the
// documented defaults.
type Options struct {
	HashAlgorithm  registryhash.Algorithm
	FuzzyThreshold float64
	ImportMaxItems int
	ImportMaxBytes int
	QuotaPerOwner  int
	FetchTimeout   time.Duration

	// Categories restricts the category field to a predefined enumeration.
	// Empty means any value within the length limit is accepted.
	Categories []string
}

func DefaultOptions() Options {
	return Options{
		HashAlgorithm:  registryhash.SHA256,
		FuzzyThreshold: search.DefaultFuzzyThreshold,
		ImportMaxItems: 1000,
		ImportMaxBytes: 1000 * 1024,
		QuotaPerOwner:  1000,
		FetchTimeout:   10 * time.Second,
	}
}

func (o *Options) applyDefaults() {
	defaults := DefaultOptions()
	if o.HashAlgorithm == "" {
		o.HashAlgorithm = defaults.HashAlgorithm
	}
	if o.FuzzyThreshold <= 0 || o.FuzzyThreshold > 1 {
		o.FuzzyThreshold = defaults.FuzzyThreshold
	}
	if o.ImportMaxItems <= 0 {
		o.ImportMaxItems = defaults.ImportMaxItems
	}
	if o.ImportMaxBytes <= 0 {
		o.ImportMaxBytes = defaults.ImportMaxBytes
	}
	if o.QuotaPerOwner <= 0 {
		o.QuotaPerOwner = defaults.QuotaPerOwner
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = defaults.FetchTimeout
	}
}

// RegistryService implements the produced interface: search, select, import
// and the single-item mutations. All writes for one owner serialize on a
// keyed mutex so quota, rate and dedup checks see a consistent snapshot.
type RegistryService struct {
	store   repository.Store
	limiter ratelimit.Counter
	logger  *zap.Logger
	client  *http.Client
	opts    Options

	categories map[string]struct{}
	ownerLocks sync.Map
	now        func() time.Time
}

func NewRegistryService(store repository.Store, limiter ratelimit.Counter, logger *zap.Logger, opts Options) *RegistryService {
	opts.applyDefaults()

	categories := make(map[string]struct{}, len(opts.Categories))
	for _, c := range opts.Categories {
		categories[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}

	return &RegistryService{
		store:      store,
		limiter:    limiter,
		logger:     logger,
		client:     &http.Client{Timeout: opts.FetchTimeout},
		opts:       opts,
		categories: categories,
		now:        time.Now,
	}
}

// Search parses the raw query, gathers the requester's visible set and
// returns the relevance-ordered projection. scopeOwner narrows the search to
// one user's registries; a requester scoped to another user sees only that
// user's public records and gets ErrNotFound when only private ones exist.
func (s *RegistryService) Search(ctx context.Context, requester access.Identity, rawQuery, scopeOwner string) ([]models.RegistryView, error) {
	q := query.Parse(rawQuery)

	var visible []models.Registry
	if scopeOwner != "" {
		all, err := s.store.ListActiveByOwner(ctx, scopeOwner)
		if err != nil {
			return nil, fmt.Errorf("list owner registries: %w", err)
		}

		visible = access.Filter(requester, all)
		if requester.UserID != scopeOwner && len(visible) == 0 && len(all) > 0 {
			return nil, ErrNotFound
		}
	} else {
		pool, err := s.store.ListAllPublicActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("list public registries: %w", err)
		}

		if !requester.IsAnonymous() {
			own, err := s.store.ListActiveByOwner(ctx, requester.UserID)
			if err != nil {
				return nil, fmt.Errorf("list own registries: %w", err)
			}
			pool = mergeByID(pool, own)
		}
		visible = access.Filter(requester, pool)
	}

	ranked := search.Rank(visible, q, search.Options{FuzzyThreshold: s.opts.FuzzyThreshold})

	views := make([]models.RegistryView, len(ranked))
	for i, reg := range ranked {
		views[i] = reg.View()
	}
	return views, nil
}

// Select resolves a single registry for the share-link path. A record that
// exists but is not visible to the requester surfaces as ErrNotFound, never
// as a permission error. A successful selection increments the visit counter.
func (s *RegistryService) Select(ctx context.Context, requester access.Identity, id string) (models.Registry, error) {
	reg, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Registry{}, ErrNotFound
		}
		return models.Registry{}, fmt.Errorf("get registry: %w", err)
	}

	if !access.Visible(requester, reg) {
		return models.Registry{}, ErrNotFound
	}

	if err := s.store.IncrementVisit(ctx, id); err != nil {
		return models.Registry{}, fmt.Errorf("increment visit count: %w", err)
	}
	reg.VisitCount++

	return reg, nil
}

// ListOwn returns the owner's active registries in alphabetical URL order.
func (s *RegistryService) ListOwn(ctx context.Context, ownerID string) ([]models.RegistryView, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}

	regs, err := s.store.ListActiveByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list own registries: %w", err)
	}

	sort.Slice(regs, func(i, j int) bool {
		return strings.ToLower(regs[i].URL) < strings.ToLower(regs[j].URL)
	})

	views := make([]models.RegistryView, len(regs))
	for i, reg := range regs {
		views[i] = reg.View()
	}
	return views, nil
}

// Edit replaces the mutable fields of an owned registry, refreshes
// dateModified and the content hash, and re-checks hash uniqueness against
// the owner's other active records.
func (s *RegistryService) Edit(ctx context.Context, ownerID, id string, item models.ImportItem) (models.Registry, error) {
	if ownerID == "" {
		return models.Registry{}, ErrUnauthenticated
	}

	mu := s.ownerLock(ownerID)
	mu.Lock()
	defer mu.Unlock()

	reg, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Registry{}, ErrNotFound
		}
		return models.Registry{}, fmt.Errorf("get registry: %w", err)
	}
	if reg.OwnerID != ownerID || !reg.Active() {
		return models.Registry{}, ErrNotFound
	}

	if err := s.validateItem(item, -1); err != nil {
		return models.Registry{}, err
	}

	tags := normalizeTags(item.Tags)
	hash := registryhash.Sum(s.opts.HashAlgorithm, item.URL, item.Description, tags, item.Category)

	others, err := s.store.ListActiveByOwner(ctx, ownerID)
	if err != nil {
		return models.Registry{}, fmt.Errorf("list own registries: %w", err)
	}
	for _, other := range others {
		if other.ID != id && other.ContentHash == hash {
			return models.Registry{}, &DuplicateError{Index: -1, ConflictID: other.ID}
		}
	}

	reg.URL = item.URL
	reg.Description = item.Description
	reg.Tags = tags
	reg.Category = item.Category
	reg.Favorite = item.Favorite
	if item.Public != nil {
		reg.Public = *item.Public
	}
	reg.ContentHash = hash
	reg.DateModified = s.now()

	if err := s.store.Update(ctx, reg); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return models.Registry{}, &DuplicateError{Index: -1}
		}
		if errors.Is(err, repository.ErrNotFound) {
			return models.Registry{}, ErrNotFound
		}
		return models.Registry{}, fmt.Errorf("update registry: %w", err)
	}

	s.logger.Info("Registry updated",
		zap.String("ownerID", ownerID),
		zap.String("registryID", id))

	return reg, nil
}

// Delete soft-deletes an owned registry, freeing its quota and dedup slot.
func (s *RegistryService) Delete(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return ErrUnauthenticated
	}

	mu := s.ownerLock(ownerID)
	mu.Lock()
	defer mu.Unlock()

	reg, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get registry: %w", err)
	}
	if reg.OwnerID != ownerID || !reg.Active() {
		return ErrNotFound
	}

	if err := s.store.SoftDelete(ctx, id, s.now()); err != nil {
		return fmt.Errorf("soft delete registry: %w", err)
	}

	s.logger.Info("Registry soft-deleted",
		zap.String("ownerID", ownerID),
		zap.String("registryID", id))

	return nil
}

func (s *RegistryService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *RegistryService) ownerLock(ownerID string) *sync.Mutex {
	lock, _ := s.ownerLocks.LoadOrStore(ownerID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func mergeByID(a, b []models.Registry) []models.Registry {
	seen := make(map[string]struct{}, len(a))
	merged := make([]models.Registry, 0, len(a)+len(b))
	for _, reg := range a {
		seen[reg.ID] = struct{}{}
		merged = append(merged, reg)
	}
	for _, reg := range b {
		if _, ok := seen[reg.ID]; !ok {
			merged = append(merged, reg)
		}
	}
	return merged
}

func normalizeTags(tags []string) []string {
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			normalized = append(normalized, tag)
		}
	}
	return normalized
}
