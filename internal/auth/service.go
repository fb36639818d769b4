package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hugh/blogit/internal/database/models"
	"github.com/hugh/blogit/internal/validation"
	"github.com/hugh/blogit/pkg/crypto"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailRequired      = errors.New("email is required")
	ErrUnauthenticated    = errors.New("could not authenticate with the provided credentials")
)

type Service struct {
	db        *gorm.DB
	encryptor *crypto.Encryptor
	logger    *slog.Logger
	forget    []Forgetter
}

func NewService(db *gorm.DB, encryptor *crypto.Encryptor, logger *slog.Logger) *Service {
	return &Service{db: db, encryptor: encryptor, logger: logger}
}

// WithVerifier lets the service drop cached credentials when a token is
// rotated or a user is removed. Several forgetters may be registered, e.g.
// the local verifier and an Invalidator reaching other servers.
func (s *Service) WithVerifier(f Forgetter) *Service {
	s.forget = append(s.forget, f)
	return s
}

func (s *Service) forgetCredentials(email string) {
	for _, f := range s.forget {
		f.Forget(email)
	}
}

type SignupInput struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
	Organization         string
}

func (in SignupInput) validate() validation.Errors {
	errs := validation.Errors{}

	if validation.IsBlank(in.Name) {
		errs.Add("name", validation.MsgBlank)
	}
	if validation.IsBlank(in.Email) {
		errs.Add("email", validation.MsgBlank)
	} else if !validation.IsValidEmail(validation.NormalizeEmail(in.Email)) {
		errs.Add("email", validation.MsgNotValid)
	}
	if in.Password == "" {
		errs.Add("password", validation.MsgBlank)
	} else if validation.CharCount(in.Password) < MinPasswordLength {
		errs.Add("password", validation.TooShort(MinPasswordLength))
	}
	if in.PasswordConfirmation == "" {
		errs.Add("password_confirmation", validation.MsgBlank)
	} else if in.PasswordConfirmation != in.Password {
		errs.Add("password_confirmation", "doesn't match Password")
	}
	if validation.IsBlank(in.Organization) {
		errs.Add("organization", validation.MsgBlank)
	}

	return errs
}

type LoginInput struct {
	Email    string
	Password string
}

// Session is what a successful login hands back to the client.
type Session struct {
	Token string
	User  *models.User
}

// Signup creates a user, finding or creating its organization by name in
// the same transaction.
func (s *Service) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	errs := input.validate()
	email := validation.NormalizeEmail(input.Email)

	if !errs.Any() {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("checking email: %w", err)
		}
		if count > 0 {
			errs.Add("email", validation.MsgTaken)
		}
	}
	if errs.Any() {
		return nil, errs
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	_, digest, sealed, err := s.issueToken()
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:         input.Name,
		Email:        email,
		PasswordHash: hash,
		TokenDigest:  digest,
		TokenSealed:  sealed,
	}
	err = s.createUser(ctx, &user, input.Organization)
	if errors.Is(err, errOrganizationRace) {
		// Another signup created the organization first; it is there now
		err = s.createUser(ctx, &user, input.Organization)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("user signed up",
		"user_id", user.ID,
		"organization_id", user.OrganizationID,
	)

	return &user, nil
}

// errOrganizationRace means the organization was inserted concurrently
// between lookup and create.
var errOrganizationRace = errors.New("organization created concurrently")

func (s *Service) createUser(ctx context.Context, user *models.User, orgName string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var org models.Organization
		if err := tx.Where(models.Organization{Name: orgName}).
			FirstOrCreate(&org).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errOrganizationRace
			}
			return fmt.Errorf("finding organization: %w", err)
		}

		user.ID = uuid.Nil
		user.OrganizationID = org.ID
		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				errs := validation.Errors{}
				errs.Add("email", validation.MsgTaken)
				return errs
			}
			return fmt.Errorf("creating user: %w", err)
		}

		user.Organization = &org
		return nil
	})
}

// Login checks the password and returns the user's standing token. An
// unknown email yields ErrUserNotFound, which callers surface as a 404.
func (s *Service) Login(ctx context.Context, input LoginInput) (*Session, error) {
	email := validation.NormalizeEmail(input.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if !CheckPassword(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.encryptor.Open(user.TokenSealed)
	if err != nil {
		return nil, fmt.Errorf("opening token: %w", err)
	}

	return &Session{Token: token, User: user}, nil
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Preload("Organization").
		First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// RotateToken reissues the authentication token for a user and returns the
// new plaintext value.
func (s *Service) RotateToken(ctx context.Context, email string) (string, error) {
	user, err := s.findByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return "", err
	}

	token, digest, sealed, err := s.issueToken()
	if err != nil {
		return "", err
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"token_digest": digest,
		"token_sealed": sealed,
	}).Error; err != nil {
		return "", fmt.Errorf("updating token: %w", err)
	}

	s.forgetCredentials(user.Email)
	s.logger.Info("authentication token rotated", "user_id", user.ID)

	return token, nil
}

// DeleteUser removes a user and their votes. Their posts stay, without an
// owner, and so does their organization. The ids of posts the user had voted
// on are returned so the caller can refresh those tallies.
func (s *Service) DeleteUser(ctx context.Context, email string) ([]uuid.UUID, error) {
	user, err := s.findByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}

	var votedPostIDs []uuid.UUID
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Vote{}).
			Where("user_id = ?", user.ID).
			Pluck("post_id", &votedPostIDs).Error; err != nil {
			return fmt.Errorf("listing votes: %w", err)
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Vote{}).Error; err != nil {
			return fmt.Errorf("deleting votes: %w", err)
		}
		if err := tx.Model(&models.Post{}).
			Where("user_id = ?", user.ID).
			Update("user_id", nil).Error; err != nil {
			return fmt.Errorf("detaching posts: %w", err)
		}
		if err := tx.Delete(user).Error; err != nil {
			return fmt.Errorf("deleting user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.forgetCredentials(user.Email)
	s.logger.Info("user deleted", "user_id", user.ID, "votes_removed", len(votedPostIDs))

	return votedPostIDs, nil
}

func (s *Service) findByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Preload("Organization").
		Where("email = ?", email).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) issueToken() (token, digest string, sealed []byte, err error) {
	token, err = crypto.NewToken()
	if err != nil {
		return "", "", nil, err
	}
	sealed, err = s.encryptor.Seal(token)
	if err != nil {
		return "", "", nil, fmt.Errorf("sealing token: %w", err)
	}
	return token, crypto.Digest(token), sealed, nil
}
