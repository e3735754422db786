package service

import (
	"errors"
	"log"

	"smartretail-pos/internal/model"
	"smartretail-pos/internal/prefs"
	"smartretail-pos/internal/repository"
	"smartretail-pos/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already in use")
	ErrUserNotFound       = errors.New("user not found")
	ErrWrongPassword      = errors.New("current password is incorrect")
)

type AuthService interface {
	Register(username, password, storeName string) (*model.User, error)
	Login(username, password string) (*LoginResponse, error)
	Logout() error
	HasRegisteredUser() (bool, error)
	CurrentUser(userID uint) (*model.User, error)
	ChangePassword(userID uint, oldPassword, newPassword string) error
	UpdateStoreName(userID uint, storeName string) error
}

type LoginResponse struct {
	Token string             `json:"token"`
	User  model.UserResponse `json:"user"`
}

type authService struct {
	userRepo repository.UserRepository
	session  *prefs.Store
}

func NewAuthService(userRepo repository.UserRepository, session *prefs.Store) AuthService {
	return &authService{
		userRepo: userRepo,
		session:  session,
	}
}

// Register creates the store account. The duplicate check is a pre-read so
// the caller gets a named conflict error rather than a driver constraint
// failure bubbling up.
func (s *authService) Register(username, password, storeName string) (*model.User, error) {
	if existing, _ := s.userRepo.FindByUsername(username); existing != nil {
		return nil, ErrUsernameTaken
	}

	user := &model.User{
		Username:  username,
		StoreName: storeName,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	log.Printf("[auth] registered store %q for user %q", storeName, username)
	return user, nil
}

// Login verifies credentials. A wrong password is a failure value, never a
// panic; callers cannot tell a missing user from a bad password.
func (s *authService) Login(username, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	token, err := jwt.GenerateToken(user.ID, user.Username, user.StoreName)
	if err != nil {
		return nil, err
	}
	if err := s.session.SaveSession(token, user.Username); err != nil {
		return nil, err
	}

	return &LoginResponse{Token: token, User: user.ToResponse()}, nil
}

func (s *authService) Logout() error {
	return s.session.ClearSession()
}

// HasRegisteredUser drives first-run routing: zero users means the UI should
// offer registration, afterwards it routes to login.
func (s *authService) HasRegisteredUser() (bool, error) {
	n, err := s.userRepo.Count()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *authService) CurrentUser(userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *authService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return ErrUserNotFound
	}
	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}

	if err := user.SetPassword(newPassword); err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(userID, user.Password)
}

func (s *authService) UpdateStoreName(userID uint, storeName string) error {
	if _, err := s.userRepo.FindByID(userID); err != nil {
		return ErrUserNotFound
	}
	return s.userRepo.UpdateStoreName(userID, storeName)
}
