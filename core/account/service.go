package account

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mawazo/shule/core"
)

var (
	// errors
	ErrNotFound           = errors.New("account not found")
	ErrEmailExists        = errors.New("an account with this email already exists")
	ErrProfileConflict    = errors.New("profile conflicts with an existing one")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type (
	Repository interface {
		GetAccountByEmail(ctx context.Context, email string) (Account, error)
		// GetActiveAccount matches the normalized email AND the role in a
		// single lookup; inactive accounts are invisible to it.
		GetActiveAccount(ctx context.Context, email string, role Role) (Account, error)
		GetAccountByID(ctx context.Context, id string) (Account, error)
		GetProfile(ctx context.Context, acct Account) (Profile, error)
		// CreateAccount persists the account and exactly one role-specific
		// profile in a single atomic unit: either both rows exist afterwards
		// or neither does. Returns ErrEmailExists on a duplicate email and
		// ErrProfileConflict on a roll-number/identifier clash.
		CreateAccount(ctx context.Context, acct Account, reg Registration) (Account, Profile, error)
		SetPasswordHash(ctx context.Context, acct Account) error
	}

	ServiceInterface interface {
		Register(ctx context.Context, reg Registration) (Summary, error)
		Authenticate(ctx context.Context, email, pwd string, role Role) (Summary, string, error)
		GetSummary(ctx context.Context, id string) (Summary, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

// Register creates an Account and its role-specific Profile in one atomic
// transaction. On a duplicate email no mutation occurs; a transient
// roll-number clash is retried once before surfacing as a conflict.
func (svc *Service) Register(ctx context.Context, reg Registration) (Summary, error) {
	na := reg.base()
	na.clean()

	// uniqueness on the normalized email, before any mutation
	if _, err := svc.repo.GetAccountByEmail(ctx, na.Email); err == nil {
		return Summary{}, core.NewConflictError(ErrEmailExists)
	} else if errors.Cause(err) != ErrNotFound {
		return Summary{}, errors.Wrap(err, "checking email uniqueness")
	}

	now := NowFunc().UTC()
	acct := Account{
		Name:      na.Name,
		Email:     na.Email,
		Role:      reg.Role(),
		IsActive:  true,
		Phone:     nullString(na.Phone),
		Address:   nullString(na.Address),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := acct.SetPassword(na.Password, svc.conf.BcryptCost); err != nil {
		return Summary{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, svc.conf.Database.Timeout)
	defer cancel()

	// acct stays intact across the retry; repos return a zero Account on failure
	created, prof, err := svc.repo.CreateAccount(ctx, acct, reg)
	if errors.Cause(err) == ErrProfileConflict {
		// transient allocator collision; retry once
		created, prof, err = svc.repo.CreateAccount(ctx, acct, reg)
	}
	if err != nil {
		switch errors.Cause(err) {
		case ErrEmailExists:
			// lost the race since the pre-check
			return Summary{}, core.NewConflictError(ErrEmailExists)
		case ErrProfileConflict:
			return Summary{}, core.NewConflictError(ErrProfileConflict)
		}
		return Summary{}, errors.Wrap(err, "creating account")
	}

	svc.sendWelcomeMail(created)
	return NewSummary(created, prof), nil
}

// Authenticate verifies the credentials of an active account holding the
// claimed role and mints a session token for it. Unknown email, role mismatch
// and wrong password all fail with the same core.AuthError: the causes are
// deliberately indistinguishable from outside.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string, role Role) (Summary, string, error) {
	email = core.CleanString(email, true /* lower */)

	acct, err := svc.repo.GetActiveAccount(ctx, email, role)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Summary{}, "", core.NewAuthError(ErrInvalidCredentials)
		}
		return Summary{}, "", errors.Wrap(err, "finding account by email and role")
	}

	ok, err := acct.CheckPassword(pwd)
	if err != nil {
		return Summary{}, "", errors.Wrap(err, "verifying password")
	}
	if !ok {
		return Summary{}, "", core.NewAuthError(ErrInvalidCredentials)
	}

	prof, err := svc.repo.GetProfile(ctx, acct)
	if err != nil {
		return Summary{}, "", errors.Wrap(err, "loading profile")
	}

	token, err := IssueToken(NewClaims(acct, svc.conf), svc.conf.SecretKey)
	if err != nil {
		return Summary{}, "", err
	}
	return NewSummary(acct, prof), token, nil
}

func (svc *Service) GetSummary(ctx context.Context, id string) (Summary, error) {
	acct, err := svc.repo.GetAccountByID(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	prof, err := svc.repo.GetProfile(ctx, acct)
	if err != nil {
		return Summary{}, errors.Wrap(err, "loading profile")
	}
	return NewSummary(acct, prof), nil
}

// SetPassword re-hashes and stores a new password for the account. Ops
// tooling only; there is no self-service reset flow.
func (svc *Service) SetPassword(ctx context.Context, acct Account, pwd string) error {
	if err := acct.SetPassword(pwd, svc.conf.BcryptCost); err != nil {
		return err
	}
	acct.UpdatedAt = NowFunc().UTC()
	return svc.repo.SetPasswordHash(ctx, acct)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Account, error) {
	return svc.repo.GetAccountByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) sendWelcomeMail(acct Account) {
	svc.mailSvc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Name: acct.Name, Address: acct.Email}},
			Subject:      fmt.Sprintf("Welcome to %s", svc.conf.AppName),
			TemplateName: "welcome",
			TemplateData: struct {
				Name string
				Role Role
			}{acct.Name, acct.Role},
		},
	)
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}
