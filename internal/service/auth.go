package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/trackboard/trackboard/internal/hash"
	"github.com/trackboard/trackboard/internal/logging"
	"github.com/trackboard/trackboard/internal/models"
	"github.com/trackboard/trackboard/internal/repo"
	"github.com/trackboard/trackboard/internal/tokens"
)

// ErrUnauthorized is the single failure kind the session service exposes
// for bad credentials and bad tokens, whatever the internal reason.
var ErrUnauthorized = errors.New("unauthorized")

// dummyHash keeps the bcrypt cost of an unknown-email login in the same
// timing class as a wrong-password one.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// AuthService orchestrates login, refresh rotation, logout and identity
// resolution on top of the credential store and the token codec.
type AuthService struct {
	Repo       *repo.GormRepo
	Codec      *tokens.Codec
	RefreshTTL time.Duration
}

func NewAuthService(r *repo.GormRepo, codec *tokens.Codec, refreshTTL time.Duration) *AuthService {
	return &AuthService{Repo: r, Codec: codec, RefreshTTL: refreshTTL}
}

type LoginResult struct {
	AccessToken      string
	ExpiresIn        int
	RefreshToken     string
	RefreshExpiresAt time.Time
	User             *models.User
}

// Login verifies credentials and issues a fresh token pair. Unknown email
// and wrong password fail identically.
func (s *AuthService) Login(ctx context.Context, email, password, deviceInfo string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// Burn a bcrypt comparison so the miss costs the same as a
			// hash mismatch.
			hash.CheckPassword(dummyHash, password)
			return nil, ErrUnauthorized
		}
		l.Error("login_failed", "reason", "store error", "error", err)
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrUnauthorized
	}

	return s.issuePair(ctx, user, deviceInfo)
}

// Refresh exchanges a valid refresh token for a new pair, revoking the
// presented one. Claims are rebuilt from a fresh store read so role and
// permission edits take effect here, not at access-token expiry.
func (s *AuthService) Refresh(ctx context.Context, rawRefreshToken, deviceInfo string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	record, err := s.Repo.ValidateRefreshToken(ctx, rawRefreshToken)
	if err != nil {
		if errors.Is(err, repo.ErrInvalidRefreshToken) {
			return nil, ErrUnauthorized
		}
		l.Error("refresh_failed", "reason", "store error", "error", err)
		return nil, err
	}

	user, err := s.Repo.GetUserByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	newRaw, newRecord, err := s.Repo.RotateRefreshToken(ctx, record.JTI, user.ID, deviceInfo, s.RefreshTTL)
	if err != nil {
		// A concurrent refresh can win the rotation between validate and
		// here; the loser is just another invalid-token failure.
		if errors.Is(err, repo.ErrInvalidRefreshToken) {
			return nil, ErrUnauthorized
		}
		l.Error("refresh_failed", "reason", "rotate error", "error", err)
		return nil, err
	}

	accessToken, _, err := s.Codec.Issue(strconv.FormatUint(uint64(user.ID), 10), RoleNames(user), ScopeNames(user))
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:      accessToken,
		ExpiresIn:        int(s.Codec.TTL().Seconds()),
		RefreshToken:     newRaw,
		RefreshExpiresAt: newRecord.ExpiresAt,
		User:             user,
	}, nil
}

// Logout revokes the presented refresh token when it is still valid.
// Logging out twice, or with a bad token, is not an error.
func (s *AuthService) Logout(ctx context.Context, rawRefreshToken string) error {
	if rawRefreshToken == "" {
		return nil
	}
	record, err := s.Repo.ValidateRefreshToken(ctx, rawRefreshToken)
	if err != nil {
		if errors.Is(err, repo.ErrInvalidRefreshToken) {
			return nil
		}
		return err
	}
	return s.Repo.RevokeRefreshToken(ctx, record.JTI)
}

// ResolveIdentity verifies the access token and re-fetches the user from
// the store, so roles removed mid-session stop working before the token
// expires.
func (s *AuthService) ResolveIdentity(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.Codec.Verify(accessToken)
	if err != nil {
		return nil, ErrUnauthorized
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrUnauthorized
	}
	user, err := s.Repo.GetUserByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issuePair(ctx context.Context, user *models.User, deviceInfo string) (*LoginResult, error) {
	accessToken, _, err := s.Codec.Issue(strconv.FormatUint(uint64(user.ID), 10), RoleNames(user), ScopeNames(user))
	if err != nil {
		return nil, err
	}

	rawRefresh, record, err := s.Repo.IssueRefreshToken(ctx, user.ID, deviceInfo, s.RefreshTTL)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:      accessToken,
		ExpiresIn:        int(s.Codec.TTL().Seconds()),
		RefreshToken:     rawRefresh,
		RefreshExpiresAt: record.ExpiresAt,
		User:             user,
	}, nil
}

// RoleNames lists the user's role names.
func RoleNames(u *models.User) []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// ScopeNames returns the deduplicated union of permission names across all
// of the user's roles.
func ScopeNames(u *models.User) []string {
	seen := make(map[string]struct{})
	var scopes []string
	for _, r := range u.Roles {
		for _, p := range r.Permissions {
			if _, ok := seen[p.Name]; ok {
				continue
			}
			seen[p.Name] = struct{}{}
			scopes = append(scopes, p.Name)
		}
	}
	return scopes
}
