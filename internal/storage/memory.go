// Coldcase - True-Crime Media Aggregation and Recommendations
// Copyright 2026 Coldcase Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coldcaselabs/coldcase

package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/coldcaselabs/coldcase/internal/models"
)

// Memory is an in-memory implementation of ContentStore,
// InteractionStore, and SearchIndex. It backs tests and single-node
// deployments that don't need persistence.
type Memory struct {
	mu           sync.RWMutex
	content      map[string]models.Content           // id -> content
	externalIDs  map[string]string                   // provider\x00externalID -> id
	interactions map[string][]models.UserInteraction // userID -> interactions
	indexed      map[string]models.Content           // search documents by id
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		content:      make(map[string]models.Content),
		externalIDs:  make(map[string]string),
		interactions: make(map[string][]models.UserInteraction),
		indexed:      make(map[string]models.Content),
	}
}

func extKey(provider models.Provider, externalID string) string {
	return string(provider) + "\x00" + externalID
}

// FindContentByExternalID implements ContentStore.
func (m *Memory) FindContentByExternalID(_ context.Context, provider models.Provider, externalID string) (*models.Content, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.externalIDs[extKey(provider, externalID)]
	if !ok {
		return nil, ErrNotFound
	}
	c := m.content[id]
	return &c, nil
}

// FindContentByID implements ContentStore.
func (m *Memory) FindContentByID(_ context.Context, id string) (*models.Content, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.content[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

// ListContent implements ContentStore.
func (m *Memory) ListContent(_ context.Context) ([]models.Content, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Content, 0, len(m.content))
	for _, c := range m.content {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpsertContent implements ContentStore with upsert-by-id semantics.
func (m *Memory) UpsertContent(_ context.Context, content *models.Content) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.content[content.ID] = *content
	for provider, extID := range content.ExternalIDs {
		m.externalIDs[extKey(provider, extID)] = content.ID
	}
	return nil
}

// SeedInteraction records an interaction. Test and fixture helper; the
// service itself never writes interactions.
func (m *Memory) SeedInteraction(i models.UserInteraction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interactions[i.UserID] = append(m.interactions[i.UserID], i)
}

// SeedUser registers a user with no interactions. Test and fixture helper.
func (m *Memory) SeedUser(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.interactions[userID]; !ok {
		m.interactions[userID] = []models.UserInteraction{}
	}
}

// FindUserInteractions implements InteractionStore.
func (m *Memory) FindUserInteractions(_ context.Context, userID string) ([]models.UserInteraction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list, ok := m.interactions[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := make([]models.UserInteraction, len(list))
	copy(out, list)
	return out, nil
}

// FindNeighborUsers implements InteractionStore: users sharing at least
// one completed or watching title with userID.
func (m *Memory) FindNeighborUsers(_ context.Context, userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	shared := make(map[string]struct{})
	for _, i := range m.interactions[userID] {
		if i.State == models.TrackingCompleted || i.State == models.TrackingWatching {
			shared[i.ContentID] = struct{}{}
		}
	}

	var neighbors []string
	for uid, list := range m.interactions {
		if uid == userID {
			continue
		}
		for _, i := range list {
			if i.State != models.TrackingCompleted && i.State != models.TrackingWatching {
				continue
			}
			if _, ok := shared[i.ContentID]; ok {
				neighbors = append(neighbors, uid)
				break
			}
		}
	}
	sort.Strings(neighbors)
	return neighbors, nil
}

// ListInteractionsSince implements InteractionStore.
func (m *Memory) ListInteractionsSince(_ context.Context, since time.Time) ([]models.UserInteraction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.UserInteraction
	for _, list := range m.interactions {
		for _, i := range list {
			if !i.UpdatedAt.Before(since) {
				out = append(out, i)
			}
		}
	}
	return out, nil
}

// IndexContent implements SearchIndex.
func (m *Memory) IndexContent(_ context.Context, docs []models.Content) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range docs {
		m.indexed[d.ID] = d
	}
	return nil
}

// Search implements SearchIndex with naive token matching: documents
// score by the number of query tokens found in title, description, or
// tags. Good enough for tests and small deployments.
func (m *Memory) Search(_ context.Context, query string, filters SearchFilters) ([]models.Content, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tokens := strings.Fields(strings.ToLower(query))

	type scored struct {
		content models.Content
		score   int
	}
	var results []scored

	for _, d := range m.indexed {
		if filters.Type != "" && d.Type != filters.Type {
			continue
		}
		if !matchesGenres(&d, filters.GenreTags) {
			continue
		}

		haystack := strings.ToLower(d.Title + " " + d.Description + " " +
			strings.Join(d.GenreTags, " ") + " " + strings.Join(d.CaseTags, " "))

		score := 0
		for _, tok := range tokens {
			if strings.Contains(haystack, tok) {
				score++
			}
		}
		if len(tokens) == 0 || score > 0 {
			results = append(results, scored{content: d, score: score})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].content.ID < results[j].content.ID
	})

	limit := filters.Limit
	if limit <= 0 || limit > len(results) {
		limit = len(results)
	}

	out := make([]models.Content, 0, limit)
	for _, r := range results[:limit] {
		out = append(out, r.content)
	}
	return out, nil
}

func matchesGenres(c *models.Content, genres []string) bool {
	if len(genres) == 0 {
		return true
	}
	for _, g := range genres {
		if c.HasTag(g) {
			return true
		}
	}
	return false
}
