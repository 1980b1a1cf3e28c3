// Package settings owns the persisted HelpCrunch configuration record and the
// rules for turning an admin form submission into a valid record.
package settings

import (
	"context"
	"errors"
	"fmt"

	"helpcrunch-live-chat/internal/options"
	"helpcrunch-live-chat/models"
)

// Store is the only writer of the configuration record.
type Store struct {
	options    options.Store
	optionName string
}

// NewStore keeps the record under optionName in opts.
func NewStore(opts options.Store, optionName string) *Store {
	return &Store{options: opts, optionName: optionName}
}

// OptionName is the key the record is stored under.
func (s *Store) OptionName() string {
	return s.optionName
}

// Activate seeds the default record on first activation. An existing record,
// customized or not, is never touched.
func (s *Store) Activate(ctx context.Context) (bool, error) {
	added, err := s.options.Add(ctx, s.optionName, models.DefaultSettings())
	if err != nil {
		return false, fmt.Errorf("activate %s: %w", s.optionName, err)
	}
	return added, nil
}

// Record returns the persisted record, or the zero record if none exists yet.
func (s *Store) Record(ctx context.Context) (models.Settings, error) {
	var record models.Settings
	err := s.options.Get(ctx, s.optionName, &record)
	if errors.Is(err, options.ErrNotFound) {
		return models.Settings{}, nil
	}
	if err != nil {
		return models.Settings{}, err
	}
	return record, nil
}

// Save replaces the whole record. A nil api_code is stored as an empty object.
func (s *Store) Save(ctx context.Context, record models.Settings) error {
	if record.APICode == nil {
		record.APICode = models.APICode{}
	}
	return s.options.Set(ctx, s.optionName, record)
}

// APIDomain returns the configured domain, or the default when unset.
func (s *Store) APIDomain(ctx context.Context) (string, error) {
	record, err := s.Record(ctx)
	if err != nil {
		return "", err
	}
	return record.EffectiveAPIDomain(), nil
}

// IsIntegrated reports whether an API code has been saved.
func (s *Store) IsIntegrated(ctx context.Context) (bool, error) {
	record, err := s.Record(ctx)
	if err != nil {
		return false, err
	}
	return record.IsIntegrated(), nil
}

// OrganizationID returns the organization from the API code and whether it is set.
func (s *Store) OrganizationID(ctx context.Context) (string, bool, error) {
	record, err := s.Record(ctx)
	if err != nil {
		return "", false, err
	}
	org, ok := record.Organization()
	return org, ok, nil
}

// ShowChatWidget reports whether the widget opens automatically.
func (s *Store) ShowChatWidget(ctx context.Context) (bool, error) {
	record, err := s.Record(ctx)
	if err != nil {
		return false, err
	}
	return record.ShowChatWidget, nil
}

type invalidator interface {
	Invalidate(ctx context.Context, name string)
}

// Warm drops any cached copy of the record and reads it back from the
// backing store, repopulating the cache.
func (s *Store) Warm(ctx context.Context) error {
	if inv, ok := s.options.(invalidator); ok {
		inv.Invalidate(ctx, s.optionName)
	}
	_, err := s.Record(ctx)
	return err
}
