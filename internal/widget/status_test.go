package widget

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/martinricard/d2loadout-widget/internal/bungie"
)

// statusService wires a real Bungie client to an httptest server answering /Settings/.
func statusService(t *testing.T, body string, code int) *Service {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Settings/" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client := bungie.NewClient(bungie.Config{BaseURL: srv.URL, APIKey: "k", Timeout: time.Second}, zaptest.NewLogger(t))
	return newTestService(t, client, nil)
}

func TestStatus_Operational(t *testing.T) {
	s := statusService(t, `{"ErrorCode":1,"Response":{"systems":{"Destiny2":{"enabled":true}}}}`, http.StatusOK)

	st, err := s.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, st.Maintenance)
	assert.Empty(t, st.Message)
	assert.Nil(t, st.EstimatedEnd)
	assert.Equal(t, newer, st.Timestamp)
}

func TestStatus_SystemDisabledEnvelope(t *testing.T) {
	s := statusService(t, `{"ErrorCode":5,"ErrorStatus":"SystemDisabled","Message":"Destiny 2 is down for maintenance."}`, http.StatusServiceUnavailable)

	st, err := s.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Maintenance)
	assert.Equal(t, "Destiny 2 is down for maintenance.", st.Message)
}

func TestStatus_Destiny2SystemDisabled(t *testing.T) {
	s := statusService(t, `{"ErrorCode":1,"Response":{"systems":{"Destiny2":{"enabled":false}}}}`, http.StatusOK)

	st, err := s.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Maintenance)
	assert.Equal(t, DefaultMaintenanceMessage, st.Message)
}

func TestStatus_Errors(t *testing.T) {
	s := newTestService(t, &fakeUpstream{}, nil)
	_, err := s.Status(context.Background())
	assert.ErrorIs(t, err, bungie.ErrMissingAPIKey)

	s = newTestService(t, &fakeUpstream{key: true, statusErr: &bungie.APIError{Status: 200, ErrorStatus: "Throttled"}}, nil)
	_, err = s.Status(context.Background())
	require.Error(t, err)
	var apiErr *bungie.APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.False(t, apiErr.Maintenance())
}
