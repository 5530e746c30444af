// Package platform implements the cross-tenant operator surface: global
// configuration, feature flags and maintenance mode. All operations here are
// gated behind platform-scope policies and run with an empty tenant context.
package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karimhaddad/clubcore/internal/cache"
)

var ErrInvalidInput = errors.New("platform: invalid input")

const maintenanceKey = "platform:maintenance"

type Setting struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type FeatureFlag struct {
	Key         string    `json:"key"`
	Enabled     bool      `json:"enabled"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Maintenance struct {
	Enabled bool   `json:"enabled"`
	Message string `json:"message,omitempty"`
}

type Service struct {
	db    *pgxpool.Pool
	cache *cache.Cache
}

func NewService(db *pgxpool.Pool, c *cache.Cache) *Service {
	return &Service{db: db, cache: c}
}

func (s *Service) Settings(ctx context.Context) ([]Setting, error) {
	rows, err := s.db.Query(ctx, "SELECT key, value, updated_at FROM platform_settings ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var out []Setting
	for rows.Next() {
		var st Setting
		if err := rows.Scan(&st.Key, &st.Value, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Service) SetSetting(ctx context.Context, key string, value json.RawMessage) (*Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: setting key is required", ErrInvalidInput)
	}
	if len(value) == 0 || !json.Valid(value) {
		return nil, fmt.Errorf("%w: setting value must be valid JSON", ErrInvalidInput)
	}

	var st Setting
	err := s.db.QueryRow(ctx,
		`INSERT INTO platform_settings (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
		 RETURNING key, value, updated_at`,
		key, value,
	).Scan(&st.Key, &st.Value, &st.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("set setting: %w", err)
	}
	return &st, nil
}

func (s *Service) FeatureFlags(ctx context.Context) ([]FeatureFlag, error) {
	rows, err := s.db.Query(ctx, "SELECT key, enabled, description, updated_at FROM feature_flags ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("list feature flags: %w", err)
	}
	defer rows.Close()

	var out []FeatureFlag
	for rows.Next() {
		var f FeatureFlag
		if err := rows.Scan(&f.Key, &f.Enabled, &f.Description, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan feature flag: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Service) SetFeatureFlag(ctx context.Context, key string, enabled bool, description string) (*FeatureFlag, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: flag key is required", ErrInvalidInput)
	}

	var f FeatureFlag
	err := s.db.QueryRow(ctx,
		`INSERT INTO feature_flags (key, enabled, description) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET enabled = EXCLUDED.enabled, description = EXCLUDED.description, updated_at = now()
		 RETURNING key, enabled, description, updated_at`,
		key, enabled, description,
	).Scan(&f.Key, &f.Enabled, &f.Description, &f.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("set feature flag: %w", err)
	}
	return &f, nil
}

// FlagEnabled reports one flag. Unknown flags are disabled.
func (s *Service) FlagEnabled(ctx context.Context, key string) (bool, error) {
	var enabled bool
	err := s.db.QueryRow(ctx, "SELECT enabled FROM feature_flags WHERE key = $1", key).Scan(&enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get feature flag: %w", err)
	}
	return enabled, nil
}

// MaintenanceStatus reads the redis-backed maintenance switch. A cache
// failure reads as "not in maintenance" so an outage cannot lock the door.
func (s *Service) MaintenanceStatus(ctx context.Context) Maintenance {
	var m Maintenance
	if err := s.cache.Get(ctx, maintenanceKey, &m); err != nil {
		return Maintenance{}
	}
	return m
}

func (s *Service) SetMaintenance(ctx context.Context, m Maintenance) error {
	if !m.Enabled {
		return s.cache.Delete(ctx, maintenanceKey)
	}
	return s.cache.Set(ctx, maintenanceKey, m, 0)
}
