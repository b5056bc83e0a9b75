// Package settings is a typed key/value configuration store with
// cache-aside reads over an injected repository (source of truth) and
// cache backend. Values are stored as strings and coerced per declared
// type on read. Writes invalidate every cache entry a stale read could
// come from: the key, the key's existence entry, both variants of the
// owning category aggregate, and both variants of the all-settings
// aggregate.
//
// A cache backend outage never fails a read: the store falls back to
// the repository and logs a warning.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Value types a setting may declare.
const (
	TypeString  = "string"
	TypeBoolean = "boolean"
	TypeInteger = "integer"
	TypeJSON    = "json"
	TypeArray   = "array"
)

const (
	cachePrefix   = "setting:"
	cacheDuration = 24 * time.Hour
)

var (
	// ErrNotFound is returned by repositories for missing keys.
	ErrNotFound = errors.New("setting not found")
	// ErrDecode is returned when a stored json/array value is
	// malformed. It is surfaced rather than silently defaulted, since a
	// default could mask configuration corruption.
	ErrDecode = errors.New("setting value decode failed")
)

// Setting is one stored configuration entry.
type Setting struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	IsPublic    bool   `json:"is_public"`
}

// CastedValue coerces the stored string per the declared type. It is a
// pure function of (Value, Type).
func (s Setting) CastedValue() (any, error) {
	return castValue(s.Value, s.Type)
}

// Entry is one key's coerced value plus the metadata the admin surface
// displays.
type Entry struct {
	Value       any    `json:"value"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	IsPublic    bool   `json:"is_public"`
}

// Store serves reads cache-first with a 24-hour TTL and keeps the cache
// coherent on writes within the process.
type Store struct {
	repo  Repository
	cache Cache
	log   logrus.FieldLogger
}

// NewStore returns a store over the given repository and cache. A nil
// logger defaults to the logrus standard logger.
func NewStore(repo Repository, cache Cache, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{repo: repo, cache: cache, log: log}
}

// Get returns the coerced value for key, or def when the key does not
// exist. Malformed json/array values surface ErrDecode.
func (s *Store) Get(ctx context.Context, key string, def any) (any, error) {
	cacheKey := cachePrefix + key

	if setting, ok := s.cacheGetSetting(ctx, cacheKey); ok {
		if setting == nil {
			return def, nil
		}
		return setting.CastedValue()
	}

	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.cachePutSetting(ctx, cacheKey, nil)
			return def, nil
		}
		return nil, err
	}

	s.cachePutSetting(ctx, cacheKey, &setting)
	return setting.CastedValue()
}

// Set stores a value under key, creating or updating the entry, then
// invalidates every cache entry the write could have staled.
func (s *Store) Set(ctx context.Context, key string, value any, valueType, category, description string, isPublic bool) error {
	stored, err := castValueForStorage(value, valueType)
	if err != nil {
		return err
	}

	// Invalidation must cover a category change: the previous category
	// aggregate is stale too.
	previousCategory := ""
	if prev, err := s.repo.Get(ctx, key); err == nil && prev.Category != category {
		previousCategory = prev.Category
	}

	setting := Setting{
		Key:         key,
		Value:       stored,
		Type:        valueType,
		Category:    category,
		Description: description,
		IsPublic:    isPublic,
	}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		return err
	}

	s.invalidate(ctx, key, category)
	if previousCategory != "" {
		s.invalidateCategory(ctx, previousCategory)
	}
	return nil
}

// Has reports whether key exists.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	cacheKey := cachePrefix + key + ":exists"

	if raw, ok := s.cacheGet(ctx, cacheKey); ok {
		return string(raw) == "1", nil
	}

	_, err := s.repo.Get(ctx, key)
	switch {
	case err == nil:
		s.cachePut(ctx, cacheKey, []byte("1"))
		return true, nil
	case errors.Is(err, ErrNotFound):
		s.cachePut(ctx, cacheKey, []byte("0"))
		return false, nil
	default:
		return false, err
	}
}

// GetByCategory returns the coerced values of every setting in
// category, optionally restricted to public entries.
func (s *Store) GetByCategory(ctx context.Context, category string, publicOnly bool) (map[string]any, error) {
	cacheKey := categoryCacheKey(category, publicOnly)

	if values, ok := s.cacheGetValues(ctx, cacheKey); ok {
		return values, nil
	}

	list, err := s.repo.ListByCategory(ctx, category, publicOnly)
	if err != nil {
		return nil, err
	}
	values, err := coerceAll(list)
	if err != nil {
		return nil, err
	}

	s.cachePutValues(ctx, cacheKey, list)
	return values, nil
}

// GetAll returns the coerced values of every setting, optionally
// restricted to public entries.
func (s *Store) GetAll(ctx context.Context, publicOnly bool) (map[string]any, error) {
	cacheKey := allCacheKey(publicOnly)

	if values, ok := s.cacheGetValues(ctx, cacheKey); ok {
		return values, nil
	}

	list, err := s.repo.ListAll(ctx, publicOnly)
	if err != nil {
		return nil, err
	}
	values, err := coerceAll(list)
	if err != nil {
		return nil, err
	}

	s.cachePutValues(ctx, cacheKey, list)
	return values, nil
}

// GetGroupedByCategory returns every setting (optionally public only)
// grouped by category with full entry metadata, for the admin surface.
// Reads go straight to the repository: the admin flow that uses this is
// rare and wants fresh data.
func (s *Store) GetGroupedByCategory(ctx context.Context, publicOnly bool) (map[string]map[string]Entry, error) {
	list, err := s.repo.ListAll(ctx, publicOnly)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string]map[string]Entry)
	for _, setting := range list {
		value, err := setting.CastedValue()
		if err != nil {
			return nil, err
		}
		if grouped[setting.Category] == nil {
			grouped[setting.Category] = make(map[string]Entry)
		}
		grouped[setting.Category][setting.Key] = Entry{
			Value:       value,
			Type:        setting.Type,
			Description: setting.Description,
			IsPublic:    setting.IsPublic,
		}
	}
	return grouped, nil
}

// Forget deletes key, reporting whether it existed, and invalidates its
// cache entries.
func (s *Store) Forget(ctx context.Context, key string) (bool, error) {
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if err := s.repo.Delete(ctx, key); err != nil {
		return false, err
	}

	s.invalidate(ctx, key, setting.Category)
	return true, nil
}

// invalidate evicts every cache entry a write to key in category could
// have staled. Partial failure is logged and tolerated: the TTL bounds
// staleness.
func (s *Store) invalidate(ctx context.Context, key, category string) {
	keys := []string{
		cachePrefix + key,
		cachePrefix + key + ":exists",
		allCacheKey(false),
		allCacheKey(true),
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("settings cache invalidation failed")
	}
	s.invalidateCategory(ctx, category)
}

func (s *Store) invalidateCategory(ctx context.Context, category string) {
	keys := []string{
		categoryCacheKey(category, false),
		categoryCacheKey(category, true),
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.log.WithError(err).WithField("category", category).Warn("settings category cache invalidation failed")
	}
}

func categoryCacheKey(category string, publicOnly bool) string {
	key := "settings:category:" + category
	if publicOnly {
		key += ":public"
	}
	return key
}

func allCacheKey(publicOnly bool) string {
	if publicOnly {
		return "settings:all:public"
	}
	return "settings:all"
}

/*
====================================
CACHE ACCESS (fail-open)
====================================
*/

func (s *Store) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	raw, found, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("settings cache read failed, falling back to repository")
		return nil, false
	}
	return raw, found
}

func (s *Store) cachePut(ctx context.Context, key string, raw []byte) {
	if err := s.cache.Set(ctx, key, raw, cacheDuration); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("settings cache write failed")
	}
}

// cachedSetting wraps a Setting so a cached negative lookup (key
// absent) is distinguishable from a cache miss.
type cachedSetting struct {
	Setting *Setting `json:"setting"`
}

func (s *Store) cacheGetSetting(ctx context.Context, key string) (*Setting, bool) {
	raw, found := s.cacheGet(ctx, key)
	if !found {
		return nil, false
	}
	var wrapped cachedSetting
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, false
	}
	return wrapped.Setting, true
}

func (s *Store) cachePutSetting(ctx context.Context, key string, setting *Setting) {
	raw, err := json.Marshal(cachedSetting{Setting: setting})
	if err != nil {
		return
	}
	s.cachePut(ctx, key, raw)
}

func (s *Store) cacheGetValues(ctx context.Context, key string) (map[string]any, bool) {
	raw, found := s.cacheGet(ctx, key)
	if !found {
		return nil, false
	}
	var list []Setting
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, false
	}
	values, err := coerceAll(list)
	if err != nil {
		return nil, false
	}
	return values, true
}

func (s *Store) cachePutValues(ctx context.Context, key string, list []Setting) {
	raw, err := json.Marshal(list)
	if err != nil {
		return
	}
	s.cachePut(ctx, key, raw)
}

func coerceAll(list []Setting) (map[string]any, error) {
	values := make(map[string]any, len(list))
	for _, setting := range list {
		value, err := setting.CastedValue()
		if err != nil {
			return nil, err
		}
		values[setting.Key] = value
	}
	return values, nil
}

/*
====================================
TYPE COERCION
====================================
*/

var truthyStrings = map[string]bool{
	"1": true, "true": true, "yes": true, "on": true,
}

func castValue(value, valueType string) (any, error) {
	switch valueType {
	case TypeBoolean:
		return truthyStrings[strings.ToLower(strings.TrimSpace(value))], nil
	case TypeInteger:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, nil
		}
		return n, nil
	case TypeJSON, TypeArray:
		var out any
		if err := json.Unmarshal([]byte(value), &out); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return out, nil
	default:
		return value, nil
	}
}

func castValueForStorage(value any, valueType string) (string, error) {
	switch valueType {
	case TypeBoolean:
		if truthy(value) {
			return "1", nil
		}
		return "0", nil
	case TypeInteger:
		switch v := value.(type) {
		case int:
			return strconv.Itoa(v), nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		case float64:
			return strconv.Itoa(int(v)), nil
		case string:
			return strings.TrimSpace(v), nil
		default:
			return "", fmt.Errorf("cannot store %T as integer", value)
		}
	case TypeJSON, TypeArray:
		raw, err := json.Marshal(value)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return string(raw), nil
	default:
		return fmt.Sprint(value), nil
	}
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return truthyStrings[strings.ToLower(strings.TrimSpace(v))]
	case int:
		return v != 0
	default:
		return false
	}
}
