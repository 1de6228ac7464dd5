package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"beefsteak/internal/model"
	"beefsteak/internal/repository"
)

// RegisterInput holds the sign-up form.
type RegisterInput struct {
	UserName  string
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// AccountService registers users and checks their passwords.
type AccountService struct {
	users *repository.UserRepository
	cost  int
}

// NewAccountService creates the service. A zero cost means bcrypt.DefaultCost.
func NewAccountService(users *repository.UserRepository, cost int) *AccountService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &AccountService{users: users, cost: cost}
}

func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	userName := strings.TrimSpace(input.UserName)
	if userName == "" {
		return nil, invalid("user name is required")
	}
	if input.Password == "" {
		return nil, invalid("password is required")
	}
	// bcrypt ignores everything past 72 bytes.
	if len(input.Password) > 72 {
		return nil, invalid("password must be at most 72 characters")
	}
	email := strings.TrimSpace(input.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, invalid("invalid email format")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := model.User{
		UserName:     userName,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalid("user name %q is taken", userName)
		}
		return nil, storageErr("register", err)
	}
	log.Printf("[info] user registered id=%d", user.ID)
	return &user, nil
}

// Authenticate returns the user whose name and password match.
func (s *AccountService) Authenticate(ctx context.Context, userName, password string) (*model.User, error) {
	user, err := s.users.FindByUserName(ctx, strings.TrimSpace(userName))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storageErr("find user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// LinkTelegram attaches chatID to the account matching the credentials.
func (s *AccountService) LinkTelegram(ctx context.Context, userName, password string, chatID int64) (*model.User, error) {
	user, err := s.Authenticate(ctx, userName, password)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetTelegramChat(ctx, user.ID, &chatID); err != nil {
		return nil, storageErr("link telegram", err)
	}
	user.TelegramChatID = &chatID
	return user, nil
}

// UnlinkTelegram detaches chatID from whichever account holds it.
func (s *AccountService) UnlinkTelegram(ctx context.Context, chatID int64) error {
	user, err := s.ByTelegramChat(ctx, chatID)
	if err != nil {
		return err
	}
	return storageErr("unlink telegram", s.users.SetTelegramChat(ctx, user.ID, nil))
}

// ByTelegramChat finds the account linked to chatID.
func (s *AccountService) ByTelegramChat(ctx context.Context, chatID int64) (*model.User, error) {
	user, err := s.users.FindByTelegramChat(ctx, chatID)
	if err != nil {
		return nil, storageErr("find linked user", err)
	}
	return user, nil
}

// Linked lists every account with a Telegram chat.
func (s *AccountService) Linked(ctx context.Context) ([]model.User, error) {
	users, err := s.users.ListLinked(ctx)
	if err != nil {
		return nil, storageErr("list linked users", err)
	}
	return users, nil
}
