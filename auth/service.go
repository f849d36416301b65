package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/krishkalaria12/snap-tiers/images"
	"github.com/krishkalaria12/snap-tiers/models"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const tokenKeyLength = 40

var (
	ErrUnauthenticated    = errors.New("auth: authentication required")
	ErrInvalidCredentials = errors.New("auth: unable to authenticate with provided credentials")
	ErrUsernameTaken      = errors.New("auth: username already taken")
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrInvalidUser        = errors.New("auth: username and password are required")
)

type Service struct {
	db     *gorm.DB
	images *images.Store
	log    zerolog.Logger
}

func NewService(db *gorm.DB, imgs *images.Store, log zerolog.Logger) *Service {
	return &Service{db: db, images: imgs, log: log.With().Str("component", "auth").Logger()}
}

// Authenticate resolves a session token to its user with the plan loaded.
func (s *Service) Authenticate(ctx context.Context, key string) (*models.User, error) {
	key = strings.TrimSpace(key)
	if !isTokenKey(key) {
		return nil, ErrUnauthenticated
	}

	var token models.AuthToken
	err := s.db.WithContext(ctx).
		Preload("User.Plan.Thumbnails").
		Where(&models.AuthToken{Key: key}).
		First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("auth: lookup token: %w", err)
	}
	return &token.User, nil
}

// Login checks the credentials and returns the user's token, creating it on
// first login.
func (s *Service) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.VerifyCredentials(ctx, username, password)
	if err != nil {
		return "", nil, err
	}

	var token models.AuthToken
	err = s.db.WithContext(ctx).Where("user_id = ?", user.ID).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		key, genErr := generateKey()
		if genErr != nil {
			return "", nil, genErr
		}
		token = models.AuthToken{Key: key, UserID: user.ID}
		err = s.db.WithContext(ctx).Create(&token).Error
	}
	if err != nil {
		return "", nil, fmt.Errorf("auth: issue token: %w", err)
	}

	s.log.Info().Uint("user_id", user.ID).Msg("login")
	return token.Key, user, nil
}

// VerifyCredentials validates a username and password against the database.
func (s *Service) VerifyCredentials(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.UserByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Plan.Thumbnails").Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("auth: lookup user: %w", err)
	}
	return &user, nil
}

func (s *Service) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Plan.Thumbnails").First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("auth: lookup user: %w", err)
	}
	return &user, nil
}

type NewUser struct {
	Username    string
	Password    string
	PlanID      *uint
	IsStaff     bool
	IsSuperuser bool
}

func (s *Service) CreateUser(ctx context.Context, in NewUser) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, ErrInvalidUser
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	user := models.User{
		Username:     username,
		PasswordHash: hash,
		PlanID:       in.PlanID,
		IsStaff:      in.IsStaff || in.IsSuperuser,
		IsSuperuser:  in.IsSuperuser,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrUsernameTaken
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("auth: create user: %w", err)
	}

	s.log.Info().Uint("user_id", user.ID).Str("username", username).Msg("user created")
	return s.UserByID(ctx, user.ID)
}

// DeleteUser removes a user together with every image it owns. The bytes
// behind the images are released after the rows are committed.
func (s *Service) DeleteUser(ctx context.Context, id uint) error {
	var keys []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		var err error
		keys, err = s.images.DeleteAllForOwner(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.AuthToken{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&user).Error; err != nil {
			return err
		}

		return nil
	})
	if errors.Is(err, ErrUserNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("auth: delete user %d: %w", id, err)
	}

	released := s.images.Release(ctx, keys)
	s.log.Info().Uint("user_id", id).Int("images", len(keys)).Int("released", released).Msg("user deleted")
	return nil
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hashed), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func generateKey() (string, error) {
	buf := make([]byte, tokenKeyLength/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func isTokenKey(key string) bool {
	if len(key) != tokenKeyLength {
		return false
	}
	_, err := hex.DecodeString(key)
	return err == nil
}
