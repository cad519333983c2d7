package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anoiana/soa-version1/models"
	"github.com/anoiana/soa-version1/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const firebaseIdentityURL = "https://identitytoolkit.googleapis.com/v1"

// Identity is an authenticated administrator.
type Identity struct {
	UserID        string `json:"user_id"`
	Email         string `json:"email"`
	Name          string `json:"name,omitempty"`
	Role          string `json:"role"`
	ProviderToken string `json:"provider_token,omitempty"`
}

// IdentityProvider authenticates administrators and runs the password reset
// flow of the configured identity backend.
type IdentityProvider interface {
	Login(ctx context.Context, email, password string) (*Identity, error)
	SendPasswordReset(ctx context.Context, email string) error
}

// FirebaseIdentity talks to the Firebase Identity Toolkit REST API.
type FirebaseIdentity struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	Log     *logrus.Logger
}

func NewFirebaseIdentity(apiKey string, log *logrus.Logger) *FirebaseIdentity {
	return &FirebaseIdentity{
		APIKey:  apiKey,
		BaseURL: firebaseIdentityURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
		Log:     log,
	}
}

type firebaseError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (f *FirebaseIdentity) call(ctx context.Context, method string, payload, out interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", utils.Internal(err, "failed to encode identity request")
	}

	endpoint := fmt.Sprintf("%s/accounts:%s?key=%s", strings.TrimRight(f.BaseURL, "/"), method, url.QueryEscape(f.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", utils.Internal(err, "failed to build identity request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", utils.Internal(err, "identity provider unavailable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var fbErr firebaseError
		if err := json.NewDecoder(resp.Body).Decode(&fbErr); err != nil || fbErr.Error.Message == "" {
			return "", utils.Internal(fmt.Errorf("status %d", resp.StatusCode), "identity provider error")
		}
		return fbErr.Error.Message, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return "", utils.Internal(err, "failed to decode identity response")
	}
	return "", nil
}

func (f *FirebaseIdentity) Login(ctx context.Context, email, password string) (*Identity, error) {
	var result struct {
		LocalID     string `json:"localId"`
		Email       string `json:"email"`
		DisplayName string `json:"displayName"`
		IDToken     string `json:"idToken"`
	}
	providerErr, err := f.call(ctx, "signInWithPassword", map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &result)
	if err != nil {
		return nil, err
	}
	if providerErr != "" {
		f.Log.WithFields(logrus.Fields{"email": email, "reason": providerErr}).Warn("Admin login rejected")
		return nil, utils.Unauthorized("invalid email or password")
	}

	return &Identity{
		UserID:        result.LocalID,
		Email:         result.Email,
		Name:          result.DisplayName,
		Role:          models.RoleAdmin,
		ProviderToken: result.IDToken,
	}, nil
}

func (f *FirebaseIdentity) SendPasswordReset(ctx context.Context, email string) error {
	var result struct {
		Email string `json:"email"`
	}
	providerErr, err := f.call(ctx, "sendOobCode", map[string]interface{}{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}, &result)
	if err != nil {
		return err
	}
	switch {
	case providerErr == "":
		return nil
	case strings.HasPrefix(providerErr, "EMAIL_NOT_FOUND"):
		return utils.Validation("email %s is not registered", email)
	default:
		return utils.Validation("password reset failed: %s", providerErr)
	}
}

// LocalIdentity authenticates against bcrypt hashed users in the database.
type LocalIdentity struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewLocalIdentity(db *gorm.DB, log *logrus.Logger) *LocalIdentity {
	return &LocalIdentity{db: db, log: log}
}

func (l *LocalIdentity) Login(ctx context.Context, email, password string) (*Identity, error) {
	var user models.User
	if err := l.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, utils.Unauthorized("invalid email or password")
		}
		return nil, utils.Internal(err, "failed to load user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, utils.Unauthorized("invalid email or password")
	}

	return &Identity{
		UserID: fmt.Sprint(user.UserID),
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	}, nil
}

func (l *LocalIdentity) SendPasswordReset(ctx context.Context, email string) error {
	return utils.Validation("password reset is not available for local accounts")
}

// Register creates an administrator account.
func (l *LocalIdentity) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 8 {
		return nil, utils.Validation("email and a password of at least 8 characters are required")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, utils.Internal(err, "failed to hash password")
	}
	user := models.User{Name: name, Email: email, Password: string(hashed), Role: models.RoleAdmin}
	if err := l.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, utils.Conflict("user %s already exists", email)
		}
		return nil, utils.Internal(err, "failed to create user")
	}

	l.log.WithField("email", email).Info("Admin user registered")
	return &user, nil
}
