package account

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"chatline-platform/internal/rbac"
)

var (
	ErrNotFound           = errors.New("account: not found")
	ErrInvalidArgument    = errors.New("account: invalid argument")
	ErrAlreadyRegistered  = errors.New("account: username or email already registered")
	ErrInvalidCredentials = errors.New("account: invalid credentials")

	// Status gates checked before the password so applicants get a useful
	// message instead of a generic credential failure.
	ErrAccountPending  = errors.New("account: pending admin approval")
	ErrAccountRejected = errors.New("account: application rejected")
	ErrAccountBanned   = errors.New("account: banned")
)

const bcryptCost = 10

type Service struct {
	db    *sql.DB
	clock func() time.Time
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db, clock: time.Now}
}

type SignupRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	PhoneNumber string `json:"phoneNumber"`
	Age         int    `json:"age"`
	Gender      string `json:"gender"`
}

// Signup registers a new account. Chatter applications start out pending and
// pick up the default price list; everyone else is approved immediately.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (Account, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return Account{}, ErrInvalidArgument
	}
	if req.Role == "" {
		req.Role = rbac.RoleUser
	}
	if !rbac.IsKnownRole(req.Role) || req.Role == rbac.RoleAdmin {
		return Account{}, ErrInvalidArgument
	}

	taken, err := loginTaken(ctx, s.db, req.Username, req.Email)
	if err != nil {
		return Account{}, err
	}
	if taken {
		return Account{}, ErrAlreadyRegistered
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return Account{}, err
	}

	a := Account{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Status:       StatusApproved,
		PhoneNumber:  req.PhoneNumber,
		Age:          req.Age,
		Gender:       req.Gender,
		CreatedAt:    s.clock().UTC(),
	}
	if req.Role == rbac.RoleChatter {
		a.Status = StatusPending
		a.Plans = DefaultChatterPlans
	}

	if err := insertAccount(ctx, s.db, a); err != nil {
		return Account{}, err
	}
	return a, nil
}

// Login authenticates a username-or-email identifier. Status gates run
// first; the password check is last so a banned account never learns whether
// its password still matches.
func (s *Service) Login(ctx context.Context, login, password string) (Account, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return Account{}, ErrInvalidArgument
	}

	a, err := getByLogin(ctx, s.db, login)
	if errors.Is(err, ErrNotFound) {
		return Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return Account{}, err
	}

	if a.Status == StatusBanned {
		return Account{}, ErrAccountBanned
	}
	if a.Role == rbac.RoleChatter {
		switch a.Status {
		case StatusPending:
			return Account{}, ErrAccountPending
		case StatusRejected:
			return Account{}, ErrAccountRejected
		}
	}

	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return Account{}, ErrInvalidCredentials
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id string) (Account, error) {
	if id == "" {
		return Account{}, ErrInvalidArgument
	}
	return getByID(ctx, s.db, id)
}
