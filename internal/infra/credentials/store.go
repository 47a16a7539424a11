// Package credentials reads vendor API keys from the database, the fallback
// for deployments that rotate keys without restarting the worker. Environment
// variables always take precedence.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"mediaworker/internal/infra"
	"mediaworker/internal/sqlinline"
)

// Store persists one token row per provider tag.
type Store struct {
	sql infra.SQLExecutor
}

// NewStore builds a credential store over the given executor.
func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// Token returns the stored API key for a provider tag, or "" when none is
// recorded. A missing row is not an error.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectProviderToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// SetToken records or replaces the API key for a provider tag.
func (s *Store) SetToken(ctx context.Context, provider, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("credentials: token is required")
	}
	props, err := json.Marshal(map[string]any{})
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertProviderToken, provider, token, props)
	return err
}
