package accounts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/frameextractor/frameextractor/internal/common"
	"github.com/frameextractor/frameextractor/internal/cryptox"
	"github.com/frameextractor/frameextractor/internal/logging"
	"github.com/frameextractor/frameextractor/internal/server/auth"
	"github.com/frameextractor/frameextractor/internal/server/mailer"
)

// Service orchestrates the account state machine on top of the identity
// directory, the token service, and the credential hasher. Status and
// reset notifications are handed to the background dispatcher and never
// block or fail the calling operation.
type Service struct {
	repo        Repository
	tokens      *auth.TokenService
	cipher      *cryptox.EmailCipher
	mail        mailer.Mailer
	tasks       mailer.Submitter
	frontendURL string
}

func NewService(repo Repository, tokens *auth.TokenService, cipher *cryptox.EmailCipher,
	mail mailer.Mailer, tasks mailer.Submitter, frontendURL string) *Service {
	return &Service{
		repo:        repo,
		tokens:      tokens,
		cipher:      cipher,
		mail:        mail,
		tasks:       tasks,
		frontendURL: frontendURL,
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Register creates a standard active account. Username and email
// fingerprint uniqueness are both enforced here; the email is stored only
// encrypted plus its fingerprint.
func (s *Service) Register(ctx context.Context, username, email, password string) error {
	return s.create(ctx, username, email, password, RoleStandard)
}

func (s *Service) create(ctx context.Context, username, email, password, role string) error {
	username = normalize(username)
	email = normalize(email)

	if _, err := s.repo.Get(ctx, username); err == nil {
		return common.ErrUsernameTaken
	} else if !errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("directory lookup: %w", err)
	}

	fingerprint := cryptox.Fingerprint(email)
	if _, err := s.repo.GetByFingerprint(ctx, fingerprint); err == nil {
		return common.ErrEmailTaken
	} else if !errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("fingerprint lookup: %w", err)
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	encryptedEmail, err := s.cipher.Encrypt(email)
	if err != nil {
		return fmt.Errorf("encrypt email: %w", err)
	}

	account := &Account{
		Username:       username,
		EncryptedEmail: encryptedEmail,
		EmailHash:      fingerprint,
		PasswordHash:   passwordHash,
		Status:         StatusActive,
		Role:           role,
	}

	if err := s.repo.Put(ctx, account); err != nil {
		return fmt.Errorf("persist account: %w", err)
	}

	return nil
}

// EnsureAdmin creates the bootstrap administrator account if it does not
// exist yet. Called once at process start.
func (s *Service) EnsureAdmin(ctx context.Context, username, email, password string) error {
	if _, err := s.repo.Get(ctx, normalize(username)); err == nil {
		return nil
	} else if !errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("directory lookup: %w", err)
	}
	return s.create(ctx, username, email, password, RoleAdministrator)
}

// Authenticate verifies the credentials and mints an access token.
// A missing account and a wrong password yield the identical
// ErrInvalidCredentials; an existing but deactivated account yields the
// distinct ErrAccountInactive.
func (s *Service) Authenticate(ctx context.Context, username, password string) (string, error) {
	account, err := s.repo.Get(ctx, normalize(username))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrInvalidCredentials
		}
		return "", fmt.Errorf("directory lookup: %w", err)
	}

	if account.Status != StatusActive {
		return "", common.ErrAccountInactive
	}

	if !auth.VerifyPassword(password, account.PasswordHash) {
		return "", common.ErrInvalidCredentials
	}

	token, err := s.tokens.IssueAccess(account.Username, account.Role)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	return token, nil
}

// SetStatus transitions an account between active and inactive and
// schedules a notification email. Failure to notify never rolls back the
// status change. Role enforcement (administrator only) happens at the
// authorization boundary, not here.
func (s *Service) SetStatus(ctx context.Context, username, status string) error {
	if !ValidStatus(status) {
		return common.ErrInvalidStatus
	}

	username = normalize(username)

	account, err := s.repo.Get(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrAccountNotFound
		}
		return fmt.Errorf("directory lookup: %w", err)
	}

	account.Status = status
	if err := s.repo.Put(ctx, account); err != nil {
		return fmt.Errorf("persist account: %w", err)
	}

	email, err := s.cipher.Decrypt(account.EncryptedEmail)
	if err != nil {
		// The transition is already persisted; a broken stored email
		// only costs the courtesy notification.
		logging.FromContext(ctx).Error("decrypt email for status notification", "username", username, "error", err)
		return nil
	}

	action := "activated"
	if status == StatusInactive {
		action = "deactivated"
	}
	subject := "Account " + action
	body := fmt.Sprintf("Hello %s,\n\nYour account has been %s.", username, action)

	s.tasks.Submit("status-email", func(ctx context.Context) error {
		return s.mail.Send(ctx, email, subject, body)
	})

	return nil
}

// RequestPasswordReset looks the account up by email fingerprint, mints a
// short-lived reset token, and schedules the reset-link email.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalize(email)

	account, err := s.repo.GetByFingerprint(ctx, cryptox.Fingerprint(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrAccountNotFound
		}
		return fmt.Errorf("fingerprint lookup: %w", err)
	}

	token, err := s.tokens.IssueReset(account.Username)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, token)
	body := fmt.Sprintf("Hello %s,\n\nClick the link to reset your password: %s", account.Username, resetLink)
	username := account.Username

	s.tasks.Submit("reset-email", func(ctx context.Context) error {
		return s.mail.Send(ctx, email, "Password Recovery", body)
	})

	logging.FromContext(ctx).Info("password reset requested", "username", username)
	return nil
}

// ResetPassword verifies the reset token, rehashes, and persists the new
// password. The caller must log in again afterwards.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return common.ErrInvalidOrExpiredToken
	}

	account, err := s.repo.Get(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrAccountNotFound
		}
		return fmt.Errorf("directory lookup: %w", err)
	}

	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	account.PasswordHash = passwordHash
	if err := s.repo.Put(ctx, account); err != nil {
		return fmt.Errorf("persist account: %w", err)
	}

	return nil
}

// List returns the username/status/role projection of every account,
// sorted by username for deterministic output.
func (s *Service) List(ctx context.Context) ([]Listing, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("directory scan: %w", err)
	}

	result := make([]Listing, 0, len(all))
	for _, account := range all {
		result = append(result, Listing{
			Username: account.Username,
			Status:   account.Status,
			Role:     account.Role,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })

	return result, nil
}

// ResolveEmail returns the decrypted email address of an account. Used by
// the extraction pipeline to address its completion notification.
func (s *Service) ResolveEmail(ctx context.Context, username string) (string, error) {
	account, err := s.repo.Get(ctx, normalize(username))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrAccountNotFound
		}
		return "", fmt.Errorf("directory lookup: %w", err)
	}
	return s.cipher.Decrypt(account.EncryptedEmail)
}
