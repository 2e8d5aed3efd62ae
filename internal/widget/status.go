package widget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/martinricard/d2loadout-widget/internal/bungie"
)

// DefaultMaintenanceMessage is reported when Bungie gives no message of its own.
const DefaultMaintenanceMessage = "Destiny 2 services are currently unavailable"

// Status tells the overlay whether to show the maintenance banner.
type Status struct {
	Maintenance bool   `json:"maintenance"`
	Message     string `json:"message,omitempty"`
	// EstimatedEnd is always null: the platform publishes no end time.
	EstimatedEnd *time.Time `json:"estimatedEnd"`
	Timestamp    time.Time  `json:"timestamp"`
}

// Status reports whether the Destiny 2 APIs are down for maintenance, either
// because the platform answers SystemDisabled or because its settings list
// the Destiny2 system as disabled.
//
// Postcondition: other upstream failures are returned as errors, never as maintenance.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	if !s.upstream.HasAPIKey() {
		return nil, bungie.ErrMissingAPIKey
	}
	st := &Status{Timestamp: s.now().UTC()}

	settings, err := s.upstream.Settings(ctx)
	if err != nil {
		var apiErr *bungie.APIError
		if errors.As(err, &apiErr) && apiErr.Maintenance() {
			st.Maintenance = true
			st.Message = apiErr.Message
			if st.Message == "" {
				st.Message = DefaultMaintenanceMessage
			}
			s.logger.Info("bungie maintenance detected", zap.Int("error_code", apiErr.ErrorCode))
			return st, nil
		}
		return nil, fmt.Errorf("checking platform status: %w", err)
	}

	if sys, ok := settings.Systems[bungie.SystemDestiny2]; ok && !sys.Enabled {
		st.Maintenance = true
		st.Message = DefaultMaintenanceMessage
	}
	return st, nil
}
