// Package widget assembles the loadout response served to the stream overlay:
// player lookup, most recently played character, loadout, artifact and DIM link.
package widget

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/martinricard/d2loadout-widget/internal/bungie"
	"github.com/martinricard/d2loadout-widget/internal/dimlink"
	"github.com/martinricard/d2loadout-widget/internal/loadout"
)

// ErrNoCharacters is returned when a profile has no Destiny 2 characters.
var ErrNoCharacters = errors.New("no characters found")

// ErrInvalidRequest is returned when a request names neither a Bungie name nor a membership.
var ErrInvalidRequest = errors.New("invalid loadout request")

var tracer = otel.Tracer("github.com/martinricard/d2loadout-widget/internal/widget")

// DefaultDisplayName is used when the profile carries no display name.
const DefaultDisplayName = "Guardian"

// Upstream is the subset of the Bungie client the service calls.
type Upstream interface {
	HasAPIKey() bool
	SearchPlayer(ctx context.Context, bungieName string) ([]bungie.UserInfoCard, error)
	GetProfile(ctx context.Context, membershipType int, membershipID string) (*bungie.Profile, error)
	Settings(ctx context.Context) (*bungie.CoreSettings, error)
}

// LinkBuilder derives a DIM link for a character.
type LinkBuilder interface {
	Build(ctx context.Context, in dimlink.Input) (string, error)
}

// Player is one search hit.
type Player struct {
	MembershipID   string `json:"membershipId"`
	MembershipType int    `json:"membershipType"`
	DisplayName    string `json:"displayName"`
	IconPath       string `json:"iconPath"`
	PlatformName   string `json:"platformName"`
}

// Request selects whose loadout to fetch. When BungieName is set the player
// is searched first and the first result is used.
type Request struct {
	BungieName     string
	MembershipType int
	MembershipID   string
	WithLink       bool
}

// IsBungieName reports whether s looks like a "Name#1234" Bungie name.
func IsBungieName(s string) bool {
	return strings.Contains(s, "#")
}

// CharacterInfo describes the character the loadout belongs to.
type CharacterInfo struct {
	ID                   string    `json:"id"`
	Class                string    `json:"class"`
	Race                 int       `json:"race"`
	Light                int       `json:"light"`
	EmblemPath           *string   `json:"emblemPath"`
	EmblemBackgroundPath *string   `json:"emblemBackgroundPath"`
	LastPlayed           time.Time `json:"lastPlayed"`
}

// Result is the loadout response body.
type Result struct {
	Success      bool                  `json:"success"`
	DisplayName  string                `json:"displayName"`
	MembershipID string                `json:"membershipId"`
	Platform     int                   `json:"platform"`
	PlatformName string                `json:"platformName"`
	Character    CharacterInfo         `json:"character"`
	Artifact     *loadout.ArtifactInfo `json:"artifact"`
	Loadout      *loadout.Loadout      `json:"loadout"`
	DIMLink      string                `json:"dimLink,omitempty"`
	Timestamp    time.Time             `json:"timestamp"`
}

// Service answers search and loadout requests. It is safe for concurrent use.
type Service struct {
	upstream  Upstream
	extractor *loadout.Extractor
	links     LinkBuilder
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a Service. A nil links disables DIM link generation.
//
// Precondition: upstream, extractor and logger must be non-nil.
// Postcondition: Returns a ready Service.
func NewService(upstream Upstream, extractor *loadout.Extractor, links LinkBuilder, logger *zap.Logger) *Service {
	return &Service{
		upstream:  upstream,
		extractor: extractor,
		links:     links,
		logger:    logger,
		now:       time.Now,
	}
}

// Search looks up players by Bungie name.
//
// Postcondition: on success the slice is non-empty; an empty search yields bungie.ErrPlayerNotFound.
func (s *Service) Search(ctx context.Context, bungieName string) ([]Player, error) {
	if !s.upstream.HasAPIKey() {
		return nil, bungie.ErrMissingAPIKey
	}
	cards, err := s.upstream.SearchPlayer(ctx, bungieName)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", bungieName, err)
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("searching %q: %w", bungieName, bungie.ErrPlayerNotFound)
	}
	players := make([]Player, 0, len(cards))
	for _, c := range cards {
		players = append(players, Player{
			MembershipID:   c.MembershipID,
			MembershipType: c.MembershipType,
			DisplayName:    c.DisplayName,
			IconPath:       c.IconPath,
			PlatformName:   bungie.PlatformName(c.MembershipType),
		})
	}
	return players, nil
}

// Loadout fetches the equipped loadout of the player's most recently played character.
//
// Postcondition: a DIM link failure never fails the call; the link is omitted instead.
func (s *Service) Loadout(ctx context.Context, req Request) (*Result, error) {
	ctx, span := tracer.Start(ctx, "widget.Loadout", trace.WithAttributes(
		attribute.Bool("by_name", req.BungieName != ""),
		attribute.Bool("with_link", req.WithLink),
	))
	defer span.End()

	res, err := s.loadout(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("character_id", res.Character.ID))
	return res, nil
}

func (s *Service) loadout(ctx context.Context, req Request) (*Result, error) {
	if !s.upstream.HasAPIKey() {
		return nil, bungie.ErrMissingAPIKey
	}
	if req.BungieName != "" {
		players, err := s.Search(ctx, req.BungieName)
		if err != nil {
			return nil, err
		}
		req.MembershipType = players[0].MembershipType
		req.MembershipID = players[0].MembershipID
	}
	if req.MembershipID == "" {
		return nil, ErrInvalidRequest
	}

	profile, err := s.upstream.GetProfile(ctx, req.MembershipType, req.MembershipID)
	if err != nil {
		return nil, fmt.Errorf("fetching profile %d/%s: %w", req.MembershipType, req.MembershipID, err)
	}
	ch, ok := profile.MostRecentCharacter()
	if !ok {
		return nil, ErrNoCharacters
	}
	equipment := profile.EquipmentFor(ch.CharacterID)

	var (
		l        *loadout.Loadout
		mods     []loadout.ArtifactMod
		artifact *loadout.ArtifactInfo
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l = s.extractor.Aggregate(gctx, ch, equipment, profile.ItemComponents)
		return nil
	})
	g.Go(func() error {
		mods = s.extractor.ExtractArtifactMods(gctx, profile.ProgressionFor(ch.CharacterID))
		return nil
	})
	g.Go(func() error {
		artifact = s.extractor.DescribeArtifact(gctx, profile.ProfileProgression.Data.SeasonalArtifact)
		return nil
	})
	_ = g.Wait()
	l.ArtifactMods = mods

	displayName := profile.Profile.Data.UserInfo.DisplayName
	if displayName == "" {
		displayName = DefaultDisplayName
	}

	res := &Result{
		Success:      true,
		DisplayName:  displayName,
		MembershipID: req.MembershipID,
		Platform:     req.MembershipType,
		PlatformName: bungie.PlatformName(req.MembershipType),
		Character: CharacterInfo{
			ID:                   ch.CharacterID,
			Class:                bungie.ClassName(ch.ClassType),
			Race:                 ch.RaceType,
			Light:                ch.Light,
			EmblemPath:           optionalURL(ch.EmblemPath),
			EmblemBackgroundPath: optionalURL(ch.EmblemBackgroundPath),
			LastPlayed:           ch.DateLastPlayed,
		},
		Artifact:  artifact,
		Loadout:   l,
		Timestamp: s.now().UTC(),
	}

	if req.WithLink && s.links != nil {
		link, err := s.links.Build(ctx, dimlink.Input{
			DisplayName:  displayName,
			ClassType:    ch.ClassType,
			Equipment:    equipment,
			Components:   profile.ItemComponents,
			ArtifactMods: mods,
		})
		if err != nil {
			s.logger.Warn("dim link omitted",
				zap.String("membership_id", req.MembershipID),
				zap.Error(err),
			)
		} else {
			res.DIMLink = link
		}
	}
	return res, nil
}

func optionalURL(path string) *string {
	if path == "" {
		return nil
	}
	u := bungie.IconURL(path)
	return &u
}
