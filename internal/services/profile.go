package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clubevents/internal/domain"
	"clubevents/internal/policy"
)

type profileService struct {
	profileRepo    domain.ProfileRepository
	contextTimeout time.Duration
	now            func() time.Time
}

// NewProfileService creates a ProfileService backed by profileRepo.
func NewProfileService(profileRepo domain.ProfileRepository, timeout time.Duration) domain.ProfileService {
	return &profileService{
		profileRepo:    profileRepo,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *profileService) SyncOnSignIn(ctx context.Context, identity *domain.Identity) (*domain.UserProfile, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if identity == nil || identity.UserID == "" {
		return nil, false, domain.ErrUnauthenticated
	}
	now := s.now()

	_, err := s.profileRepo.GetByID(ctx, identity.UserID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		profile := domain.NewUserProfile(identity, now)
		if strings.TrimSpace(profile.DisplayName) == "" {
			profile.DisplayName = displayNameFromEmail(profile.Email)
		}
		if err := policy.ValidateProfile(profile); err != nil {
			return nil, false, err
		}
		err := s.profileRepo.Create(ctx, profile)
		if err == nil {
			return profile, true, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, false, fmt.Errorf("create profile: %w", err)
		}
		// A concurrent first sign-in created it; fall through to the refresh.
	case err != nil:
		return nil, false, fmt.Errorf("get profile: %w", err)
	}

	if identity.Email != "" {
		if err := policy.ValidateEmail("email", identity.Email); err != nil {
			return nil, false, err
		}
	}
	profile, err := s.profileRepo.RecordSignIn(ctx, identity.UserID, identity.Email, identity.DisplayName, identity.PhotoURL, now)
	if err != nil {
		return nil, false, fmt.Errorf("record sign-in: %w", err)
	}
	return profile, false, nil
}

func (s *profileService) ResolvePrincipal(ctx context.Context, identity *domain.Identity) (domain.Principal, error) {
	if identity == nil || identity.UserID == "" {
		return domain.Anonymous(), nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	profile, err := s.profileRepo.GetByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewPrincipal(identity, domain.RoleUser), nil
		}
		return domain.Principal{}, fmt.Errorf("get profile: %w", err)
	}
	p := domain.NewPrincipal(identity, profile.Role)
	if p.DisplayName == "" {
		p.DisplayName = profile.DisplayName
	}
	if p.Email == "" {
		p.Email = profile.Email
	}
	return p, nil
}

func (s *profileService) GetProfile(ctx context.Context, p domain.Principal, id string) (*domain.UserProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := policy.Check(p, policy.ActionRead, policy.ProfileRecord{OwnerID: id}); err != nil {
		return nil, err
	}
	return s.getProfile(ctx, id)
}

func (s *profileService) UpdateProfile(ctx context.Context, p domain.Principal, id string, patch domain.ProfilePatch) (*domain.UserProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := policy.Check(p, policy.ActionUpdate, policy.ProfileRecord{OwnerID: id}); err != nil {
		return nil, err
	}
	if patch.DisplayName == nil && patch.PhotoURL == nil && patch.Preferences == nil {
		return nil, domain.NewValidationError("", "no fields to update")
	}

	profile, err := s.getProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.DisplayName != nil {
		profile.DisplayName = strings.TrimSpace(*patch.DisplayName)
	}
	if patch.PhotoURL != nil {
		profile.PhotoURL = strings.TrimSpace(*patch.PhotoURL)
	}
	if patch.Preferences != nil {
		profile.Preferences = *patch.Preferences
	}
	if err := policy.ValidateProfile(profile); err != nil {
		return nil, err
	}
	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return profile, nil
}

func (s *profileService) SetRole(ctx context.Context, p domain.Principal, id string, role domain.Role) (*domain.UserProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := policy.Check(p, policy.ActionSetRole, policy.ProfileRecord{OwnerID: id}); err != nil {
		return nil, err
	}
	if err := policy.ValidateRole(role); err != nil {
		return nil, err
	}
	profile, err := s.getProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	profile.Role = role
	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("update profile role: %w", err)
	}
	return profile, nil
}

func (s *profileService) getProfile(ctx context.Context, id string) (*domain.UserProfile, error) {
	profile, err := s.profileRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

func displayNameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
