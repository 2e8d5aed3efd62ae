package bungie

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, APIKey: "test-key", Timeout: time.Second}, zaptest.NewLogger(t))
}

func TestSearchPlayer_ReturnsCards(t *testing.T) {
	var gotKey, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"ErrorCode":1,"ErrorStatus":"Success","Response":[
			{"membershipId":"4611686018467484767","membershipType":3,"displayName":"Marty"}]}`))
	})

	cards, err := c.SearchPlayer(context.Background(), "Marty#2689")
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "4611686018467484767", cards[0].MembershipID)
	assert.Equal(t, 3, cards[0].MembershipType)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "/Destiny2/SearchDestinyPlayer/-1/Marty%232689/", gotPath)
}

func TestSearchPlayer_EmptyIsNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ErrorCode":1,"Response":[]}`))
	})
	_, err := c.SearchPlayer(context.Background(), "Nobody#0000")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
	assert.False(t, IsUnavailable(err))
}

func TestGetProfile_DecodesComponents(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("components")
		_, _ = w.Write([]byte(`{"ErrorCode":1,"Response":{
			"profile":{"data":{"userInfo":{"displayName":"Marty","membershipId":"1","membershipType":3}}},
			"characters":{"data":{"c1":{"characterId":"c1","classType":2,"light":2010,
				"dateLastPlayed":"2025-06-01T10:00:00Z","stats":{"2996146975":100,"392767087":70}}}},
			"characterEquipment":{"data":{"c1":{"items":[{"itemHash":10,"itemInstanceId":"i1","bucketHash":1498876634}]}}},
			"itemComponents":{"sockets":{"data":{"i1":{"sockets":[{"plugHash":5,"isEnabled":true,"isVisible":true}]}}}}
		}}`))
	})

	p, err := c.GetProfile(context.Background(), 3, "1")
	require.NoError(t, err)
	assert.Equal(t, ProfileComponents, gotQuery)
	assert.Equal(t, "Marty", p.Profile.Data.UserInfo.DisplayName)

	ch, ok := p.MostRecentCharacter()
	require.True(t, ok)
	assert.Equal(t, "c1", ch.CharacterID)
	assert.Equal(t, 100, ch.Stats[2996146975])

	items := p.EquipmentFor("c1")
	require.Len(t, items, 1)
	assert.Equal(t, uint32(1498876634), items[0].BucketHash)
	assert.Len(t, p.ItemComponents.SocketsFor("i1"), 1)
	assert.Empty(t, p.ItemComponents.SocketsFor("missing"))
	assert.Nil(t, p.ProgressionFor("c1"))
}

func TestGetProfile_BlankLastPlayedIsTolerated(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ErrorCode":1,"Response":{
			"characters":{"data":{
				"c1":{"characterId":"c1","dateLastPlayed":""},
				"c2":{"characterId":"c2","dateLastPlayed":"not a date"},
				"c3":{"characterId":"c3","dateLastPlayed":"2025-06-01T10:00:00.123Z","light":1990}}}
		}}`))
	})

	p, err := c.GetProfile(context.Background(), 3, "1")
	require.NoError(t, err)
	require.Len(t, p.Characters.Data, 3)
	assert.True(t, p.Characters.Data["c1"].DateLastPlayed.IsZero())
	assert.True(t, p.Characters.Data["c2"].DateLastPlayed.IsZero())

	ch, ok := p.MostRecentCharacter()
	require.True(t, ok)
	assert.Equal(t, "c3", ch.CharacterID)
	assert.Equal(t, 1990, ch.Light)
}

func TestFetchDefinition_404IsNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	_, err := c.FetchDefinition(context.Background(), EntityInventoryItem, 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestFetchDefinition_NotFoundErrorStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ErrorCode":1653,"ErrorStatus":"DestinyDefinitionNotFound","Message":"missing"}`))
	})
	_, err := c.FetchDefinition(context.Background(), EntityInventoryItem, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchDefinition_ServerErrorIsUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"ErrorCode":5,"ErrorStatus":"SystemDisabled","Message":"maintenance"}`))
	})
	_, err := c.FetchDefinition(context.Background(), EntityInventoryItem, 42)
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "maintenance", apiErr.Message)
	assert.Equal(t, 5, apiErr.ErrorCode)
}

func TestFetchDefinition_TimeoutIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	c := NewClient(Config{BaseURL: srv.URL, APIKey: "k", Timeout: 50 * time.Millisecond}, zaptest.NewLogger(t))

	_, err := c.FetchDefinition(context.Background(), EntityArtifact, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, IsUnavailable(err))
}

func TestSettings(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"ErrorCode":1,"Response":{"systems":{
			"Destiny2":{"enabled":false,"parameters":{}},"Forums":{"enabled":true}}}}`))
	})

	s, err := c.Settings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/Settings/", gotPath)
	assert.False(t, s.Systems[SystemDestiny2].Enabled)
	assert.True(t, s.Systems["Forums"].Enabled)
}

func TestSettings_SystemDisabledIsMaintenance(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ErrorCode":5,"ErrorStatus":"SystemDisabled","Message":"This system is temporarily disabled for maintenance."}`))
	})

	_, err := c.Settings(context.Background())
	require.Error(t, err)
	assert.True(t, IsMaintenance(err))
	assert.True(t, IsUnavailable(err))
}

func TestIsUnavailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"not found", &APIError{Status: 404}, false},
		{"player not found", ErrPlayerNotFound, false},
		{"missing key", ErrMissingAPIKey, false},
		{"throttled envelope", &APIError{Status: 200, ErrorStatus: "Throttled"}, false},
		{"server error", &APIError{Status: 502}, true},
		{"maintenance", &APIError{Status: 200, ErrorStatus: ErrorStatusSystemDisabled}, true},
		{"transport", fmt.Errorf("%w: GET /x: %w", ErrUnavailable, context.DeadlineExceeded), true},
		{"unrelated", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUnavailable(tt.err))
		})
	}
}

func TestMissingAPIKey(t *testing.T) {
	c := NewClient(Config{}, zaptest.NewLogger(t))
	assert.False(t, c.HasAPIKey())
	_, err := c.GetProfile(context.Background(), 3, "1")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestConfigValidateDefaults(t *testing.T) {
	cfg := Config{}
	cfg.Validate()
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 1, cfg.Burst)
}
