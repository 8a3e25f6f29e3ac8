package usecases

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"energy-server/apperrors"
	"energy-server/auth"
	"energy-server/entities"
	"energy-server/metrics"
	"energy-server/repositories"

	"go.uber.org/zap"
)

const minPasswordLength = 8

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

type UserUseCase struct {
	Users   repositories.UserRepository
	Hasher  *auth.Hasher
	Tokens  *auth.TokenIssuer
	Metrics *metrics.Metrics
	Log     *zap.Logger

	now       func() time.Time
	dummyOnce sync.Once
	dummyHash string
}

func NewUserUseCase(users repositories.UserRepository, hasher *auth.Hasher, tokens *auth.TokenIssuer, m *metrics.Metrics, log *zap.Logger) *UserUseCase {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserUseCase{
		Users:   users,
		Hasher:  hasher,
		Tokens:  tokens,
		Metrics: m,
		Log:     log,
		now:     time.Now,
	}
}

type RegisterInput struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

// Register creates an account. The plaintext password is only used to
// derive the bcrypt hash.
func (uc *UserUseCase) Register(ctx context.Context, in RegisterInput) (*entities.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.FullName == "" || in.Email == "" || in.Password == "" || in.Phone == "" {
		return nil, apperrors.Validation("All fields (full_name, email, password, phone) are required.")
	}
	if !emailPattern.MatchString(in.Email) {
		return nil, apperrors.Validation("Invalid email format.")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperrors.Validation("Password must be at least 8 characters long.")
	}

	hash, err := uc.Hasher.Hash(in.Password)
	if err != nil {
		return nil, storeErr("Server error during signup.", err)
	}

	user := &entities.User{
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     in.FullName,
		Phone:        in.Phone,
	}
	if err := uc.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.Conflict("Email already exists.")
		}
		return nil, storeErr("Error creating user.", err)
	}

	uc.Metrics.IncSignup()
	return user, nil
}

// Verify checks credentials. Unknown email and wrong password produce the
// same error.
func (uc *UserUseCase) Verify(ctx context.Context, email, password string) (*entities.User, error) {
	invalid := apperrors.Auth("Invalid email or password.")

	user, err := uc.Users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if isNotFound(err) {
			// keep the response time close to the wrong-password path
			_, _ = uc.Hasher.Compare(uc.placeholderHash(), password)
			return nil, invalid
		}
		return nil, storeErr("Error during signin.", err)
	}

	ok, err := uc.Hasher.Compare(user.PasswordHash, password)
	if err != nil {
		return nil, storeErr("Error during signin.", err)
	}
	if !ok {
		return nil, invalid
	}
	return user, nil
}

type SignInResult struct {
	Token string
	User  *entities.User
}

// SignIn verifies credentials, records the login time and issues a token.
func (uc *UserUseCase) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	if email == "" || password == "" {
		return nil, apperrors.Validation("Email and password are required.")
	}

	user, err := uc.Verify(ctx, email, password)
	if err != nil {
		uc.Metrics.IncSignin(false)
		return nil, err
	}

	at := uc.now().UTC()
	if err := uc.Users.TouchLastLogin(ctx, user.ID, at); err != nil {
		uc.Log.Warn("Failed to record last login", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLogin = &at
	}

	token, err := uc.Tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, storeErr("Error during signin.", err)
	}

	uc.Metrics.IncSignin(true)
	return &SignInResult{Token: token, User: user}, nil
}

func (uc *UserUseCase) Profile(ctx context.Context, userID string) (*entities.User, error) {
	user, err := uc.Users.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("User not found.")
		}
		return nil, storeErr("Error fetching profile.", err)
	}
	return user, nil
}

// UpdateProfile applies patch as one update. Blank values are ignored.
func (uc *UserUseCase) UpdateProfile(ctx context.Context, userID string, patch entities.ProfilePatch) error {
	var update entities.ProfileUpdate
	if nonBlank(patch.FullName) {
		update.FullName = patch.FullName
	}
	if nonBlank(patch.Phone) {
		update.Phone = patch.Phone
	}
	if nonBlank(patch.Address) {
		update.Address = patch.Address
	}

	if nonBlank(patch.NewPassword) {
		if !nonBlank(patch.CurrentPassword) {
			return apperrors.Validation("Current password is required to set a new password.")
		}
		if len(*patch.NewPassword) < minPasswordLength {
			return apperrors.Validation("New password must be at least 8 characters long.")
		}

		user, err := uc.Users.GetByID(ctx, userID)
		if err != nil {
			if isNotFound(err) {
				return apperrors.NotFound("User not found or no changes made.")
			}
			return storeErr("Error fetching user for password update.", err)
		}
		ok, err := uc.Hasher.Compare(user.PasswordHash, *patch.CurrentPassword)
		if err != nil {
			return storeErr("Error fetching user for password update.", err)
		}
		if !ok {
			return apperrors.Auth("Incorrect current password.")
		}

		hash, err := uc.Hasher.Hash(*patch.NewPassword)
		if err != nil {
			return storeErr("Server error during profile update.", err)
		}
		update.PasswordHash = &hash
	}

	if update.Empty() {
		return apperrors.Validation("No fields to update.")
	}

	if err := uc.Users.Update(ctx, userID, update); err != nil {
		if isNotFound(err) {
			return apperrors.NotFound("User not found or no changes made.")
		}
		return storeErr("Error updating profile.", err)
	}
	return nil
}

func (uc *UserUseCase) placeholderHash() string {
	uc.dummyOnce.Do(func() {
		uc.dummyHash, _ = uc.Hasher.Hash("placeholder-password")
	})
	return uc.dummyHash
}
