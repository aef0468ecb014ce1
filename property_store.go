package unireservas

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// PropertyAPI is the part of the properties backend a PropertyStore uses.
// *PropertiesClient implements it.
type PropertyAPI interface {
	List(ctx context.Context, opts *ListOptions) (*PropertyPage, error)
	SetFavorite(ctx context.Context, id string, want bool) error
}

// PropertyStore owns the property collection and the filter state of one
// browsing session. Visible applies the filters to whatever was last loaded.
type PropertyStore struct {
	api    PropertyAPI
	tokens TokenSource
	logger *slog.Logger

	mu         sync.Mutex
	properties []Property
	filters    FilterState
	loaded     bool
}

type PropertyStoreOption func(*PropertyStore)

func WithStoreLogger(logger *slog.Logger) PropertyStoreOption {
	return func(s *PropertyStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewPropertyStore creates a store. tokens decides whether favorites can be
// toggled; nil means never.
func NewPropertyStore(api PropertyAPI, tokens TokenSource, opts ...PropertyStoreOption) *PropertyStore {
	s := &PropertyStore{
		api:     api,
		tokens:  tokens,
		logger:  slog.New(slog.DiscardHandler),
		filters: DefaultFilters(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "property_store")
	return s
}

// Refresh reloads the collection. On failure the previous collection stays.
func (s *PropertyStore) Refresh(ctx context.Context, opts *ListOptions) error {
	page, err := s.api.List(ctx, opts)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.properties = cloneSlice(page.Properties)
	s.loaded = true
	return nil
}

// Loaded reports whether Refresh has succeeded at least once.
func (s *PropertyStore) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Upsert adds p to the collection, replacing any property with the same id.
func (s *PropertyStore) Upsert(p Property) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(p.ID); i >= 0 {
		s.properties[i] = p
		return
	}
	s.properties = append(s.properties, p)
}

// Properties returns the unfiltered collection.
func (s *PropertyStore) Properties() []Property {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSlice(s.properties)
}

// Property returns one loaded property by id.
func (s *PropertyStore) Property(id string) (Property, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.properties[i], true
	}
	return Property{}, false
}

// Visible returns the collection filtered and sorted by the current filters.
func (s *PropertyStore) Visible() []Property {
	s.mu.Lock()
	props, f := cloneSlice(s.properties), s.filters.Clone()
	s.mu.Unlock()
	return ApplyFilters(props, f)
}

func (s *PropertyStore) Filters() FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters.Clone()
}

func (s *PropertyStore) SetFilters(f FilterState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = f.Clone()
}

// UpdateFilters replaces the filters with fn applied to them, for use with
// the FilterState With helpers.
func (s *PropertyStore) UpdateFilters(fn func(FilterState) FilterState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = fn(s.filters.Clone())
}

func (s *PropertyStore) ResetFilters() {
	s.SetFilters(DefaultFilters())
}

// ToggleFavorite flips the favorite flag of a loaded property and tells the
// server the new state. The flip shows immediately and is undone if the
// server call fails. It returns the flag as it stands afterwards.
func (s *PropertyStore) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	if s.tokens == nil || s.tokens.Token() == "" {
		return false, ErrNotAuthenticated
	}

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false, fmt.Errorf("property %s: %w", id, ErrNotFound)
	}
	was := s.properties[i].IsFavorited
	m := newPendingMutation("favorite:"+id, was)
	s.properties[i].IsFavorited = !was
	s.mu.Unlock()

	if err := s.api.SetFavorite(ctx, id, !was); err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if prev, ok := m.rollback(); ok {
			if i := s.indexOf(id); i >= 0 {
				s.properties[i].IsFavorited = prev
			}
		}
		s.logger.Warn("favorite rolled back", "method", "ToggleFavorite", "property_id", id, "mutation_id", m.id, "mutation_key", m.key, "error", err)
		return was, err
	}
	m.confirm()
	return !was, nil
}

func (s *PropertyStore) indexOf(id string) int {
	for i := range s.properties {
		if s.properties[i].ID == id {
			return i
		}
	}
	return -1
}
