package service

import (
	"context"
	"strings"
	"time"

	"socialdeck/internal/catalog"
	"socialdeck/internal/models"
	"socialdeck/internal/observability"
	"socialdeck/internal/repository"
)

// MaxBioLength caps the free-text bio.
const MaxBioLength = 500

// ProfileService loads, edits and saves avatar profiles.
type ProfileService struct {
	repo          repository.ProfileRepository
	cat           *catalog.Catalog
	avatarBaseURL string
	now           func() time.Time
	locks         keyedMutex
}

func NewProfileService(repo repository.ProfileRepository, cat *catalog.Catalog, avatarBaseURL string, now func() time.Time) *ProfileService {
	if now == nil {
		now = time.Now
	}
	return &ProfileService{
		repo:          repo,
		cat:           cat,
		avatarBaseURL: avatarBaseURL,
		now:           now,
	}
}

// Load returns the stored profile with missing style and privacy fields
// backfilled. A user without a profile gets a new one named after the session.
func (s *ProfileService) Load(ctx context.Context, session models.Session) (*models.AvatarProfile, error) {
	profile, err := s.repo.GetByUserID(ctx, session.UserID)
	if err != nil {
		if models.ErrorCode(err) != models.CodeNotFound {
			return nil, err
		}
		profile = &models.AvatarProfile{
			UserID:      session.UserID,
			DisplayName: session.DisplayName,
		}
	}
	s.backfill(profile)
	profile.AvatarURL = s.AvatarURL(profile.Style)
	return profile, nil
}

func (s *ProfileService) backfill(p *models.AvatarProfile) {
	defaults := s.cat.DefaultStyle()
	for _, field := range models.StyleFields {
		if _, ok := s.cat.StyleOption(field, p.Style.Get(field)); !ok {
			p.Style.Set(field, defaults.Get(field))
		}
	}
	visible := func() *bool { v := true; return &v }
	if p.Privacy.ShowEmail == nil {
		p.Privacy.ShowEmail = visible()
	}
	if p.Privacy.ShowBio == nil {
		p.Privacy.ShowBio = visible()
	}
	if p.Privacy.ShowTraits == nil {
		p.Privacy.ShowTraits = visible()
	}
	if p.Traits == nil {
		p.Traits = []string{}
	}
}

// View bundles the profile with its derived values.
func (s *ProfileService) View(ctx context.Context, session models.Session) (*models.ProfileView, error) {
	profile, err := s.Load(ctx, session)
	if err != nil {
		return nil, err
	}
	return s.view(profile), nil
}

func (s *ProfileService) view(profile *models.AvatarProfile) *models.ProfileView {
	return &models.ProfileView{
		Profile:       profile,
		Completion:    s.ComputeCompletion(profile),
		AvatarURL:     profile.AvatarURL,
		BioSuggestion: s.GenerateBioSuggestion(profile),
	}
}

// ToggleTrait removes trait when selected, otherwise appends it. Selecting
// beyond the limit is rejected and the existing selection is kept.
func (s *ProfileService) ToggleTrait(ctx context.Context, session models.Session, trait string) (*models.ProfileView, error) {
	trait = strings.ToLower(strings.TrimSpace(trait))
	if !s.cat.HasTrait(trait) {
		return nil, models.NewValidationError("Unknown trait: " + trait)
	}

	return s.mutate(ctx, session, func(p *models.AvatarProfile) error {
		if p.HasTrait(trait) {
			kept := make([]string, 0, len(p.Traits))
			for _, t := range p.Traits {
				if t != trait {
					kept = append(kept, t)
				}
			}
			p.Traits = kept
			return nil
		}
		if len(p.Traits) >= models.MaxTraits {
			return models.NewValidationError("Trait limit reached: deselect a trait first")
		}
		p.Traits = append(p.Traits, trait)
		return nil
	})
}

// GenerateBioSuggestion builds a bio from the first trait's opener and lists
// up to three following traits. No traits gives "".
func (s *ProfileService) GenerateBioSuggestion(profile *models.AvatarProfile) string {
	if len(profile.Traits) == 0 {
		return ""
	}
	bio := s.cat.BioFor(profile.Traits[0])
	if bio == "" {
		bio = "I'm " + profile.Traits[0] + "."
	}

	rest := profile.Traits[1:]
	if len(rest) > 3 {
		rest = rest[:3]
	}
	switch len(rest) {
	case 0:
		return bio
	case 1:
		return bio + " Also " + rest[0] + "."
	default:
		return bio + " Also " + strings.Join(rest[:len(rest)-1], ", ") + " and " + rest[len(rest)-1] + "."
	}
}

// SetAvatarStyleField sets one style field to a catalog value.
func (s *ProfileService) SetAvatarStyleField(ctx context.Context, session models.Session, field, value string) (*models.ProfileView, error) {
	field = strings.ToLower(strings.TrimSpace(field))
	value = strings.ToLower(strings.TrimSpace(value))
	if _, ok := s.cat.Avatar[field]; !ok {
		return nil, models.NewValidationError("Unknown avatar field: " + field)
	}
	if _, ok := s.cat.StyleOption(field, value); !ok {
		return nil, models.NewValidationError("Invalid value " + value + " for " + field)
	}

	return s.mutate(ctx, session, func(p *models.AvatarProfile) error {
		p.Style.Set(field, value)
		return nil
	})
}

// UpdateDetails applies display name, bio and privacy edits. Nil fields are kept.
func (s *ProfileService) UpdateDetails(ctx context.Context, session models.Session, in models.ProfileDetailsInput) (*models.ProfileView, error) {
	if in.DisplayName != nil && strings.TrimSpace(*in.DisplayName) == "" {
		return nil, models.NewValidationError("Display name cannot be empty")
	}
	if in.Bio != nil && len([]rune(*in.Bio)) > MaxBioLength {
		return nil, models.NewValidationError("Bio is too long")
	}

	return s.mutate(ctx, session, func(p *models.AvatarProfile) error {
		if in.DisplayName != nil {
			p.DisplayName = strings.TrimSpace(*in.DisplayName)
		}
		if in.Bio != nil {
			p.Bio = strings.TrimSpace(*in.Bio)
		}
		if in.Privacy != nil {
			if in.Privacy.ShowEmail != nil {
				p.Privacy.ShowEmail = in.Privacy.ShowEmail
			}
			if in.Privacy.ShowBio != nil {
				p.Privacy.ShowBio = in.Privacy.ShowBio
			}
			if in.Privacy.ShowTraits != nil {
				p.Privacy.ShowTraits = in.Privacy.ShowTraits
			}
		}
		return nil
	})
}

// ComputeCompletion is the profile's completion score, a multiple of 20 in [0, 100].
func (s *ProfileService) ComputeCompletion(profile *models.AvatarProfile) int {
	return profile.CompletionScore()
}

// Save writes the profile with its derived avatar URL, then records the
// completion score. Only the profile write can fail the call.
func (s *ProfileService) Save(ctx context.Context, session models.Session, profile *models.AvatarProfile) error {
	profile.UserID = session.UserID
	profile.AvatarURL = s.AvatarURL(profile.Style)
	if err := s.repo.Save(ctx, profile); err != nil {
		return err
	}

	record := &models.ProfileCompletion{
		UserID:    session.UserID,
		Score:     s.ComputeCompletion(profile),
		UpdatedAt: s.now(),
	}
	if err := s.repo.SaveCompletion(ctx, record); err != nil {
		observability.LogAsyncOperationError(ctx, "profile.save_completion", err, map[string]interface{}{
			"score": record.Score,
		})
		observability.PersistenceFailures.WithLabelValues("profile_completion", "primary").Inc()
	}
	return nil
}

// AvatarURL renders style into the avatar service URL.
func (s *ProfileService) AvatarURL(style models.AvatarStyle) string {
	return s.cat.AvatarURL(s.avatarBaseURL, style)
}

func (s *ProfileService) mutate(ctx context.Context, session models.Session, fn func(*models.AvatarProfile) error) (*models.ProfileView, error) {
	unlock := s.locks.Lock(session.UserID)
	defer unlock()

	profile, err := s.Load(ctx, session)
	if err != nil {
		return nil, err
	}
	if err := fn(profile); err != nil {
		return nil, err
	}
	if err := s.Save(ctx, session, profile); err != nil {
		return nil, err
	}
	return s.view(profile), nil
}
