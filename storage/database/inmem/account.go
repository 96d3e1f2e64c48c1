package inmemdb

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mawazo/shule/core/account"
)

// AccountRepository is a mutex-guarded in-memory account.Repository. It keeps
// the same guarantees as the psql implementation: unique email, unique
// (class_id, section, roll_number) and atomic account+profile creation.
type AccountRepository struct {
	mu        sync.Mutex
	accounts  map[string]account.Account // keyed by account ID
	profiles  map[string]account.Profile // keyed by account ID
	failAlloc bool
}

var _ account.Repository = (*AccountRepository)(nil)

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		accounts: make(map[string]account.Account),
		profiles: make(map[string]account.Profile),
	}
}

func (repo *AccountRepository) GetAccountByEmail(ctx context.Context, email string) (account.Account, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.findByEmail(email)
}

func (repo *AccountRepository) findByEmail(email string) (account.Account, error) {
	for _, acct := range repo.accounts {
		if acct.Email == email {
			return acct, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *AccountRepository) GetActiveAccount(ctx context.Context, email string, role account.Role) (account.Account, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for _, acct := range repo.accounts {
		if acct.Email == email && acct.Role == role && acct.IsActive {
			return acct, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *AccountRepository) GetAccountByID(ctx context.Context, id string) (account.Account, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	acct, ok := repo.accounts[id]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return acct, nil
}

func (repo *AccountRepository) GetProfile(ctx context.Context, acct account.Account) (account.Profile, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	prof, ok := repo.profiles[acct.ID]
	if !ok {
		return nil, account.ErrNotFound
	}
	return prof, nil
}

// CreateAccount builds the profile and stores account+profile under a single
// lock so concurrent callers observe the same all-or-nothing semantics as a
// database transaction.
func (repo *AccountRepository) CreateAccount(ctx context.Context, acct account.Account, reg account.Registration) (account.Account, account.Profile, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, err := repo.findByEmail(acct.Email); err == nil {
		return account.Account{}, nil, account.ErrEmailExists
	}

	acct.ID = uuid.New().String()
	prof, err := account.BuildProfile(ctx, acct, reg, lockedAllocator{repo: repo})
	if err != nil {
		return account.Account{}, nil, err
	}

	if sp, ok := prof.(account.StudentProfile); ok {
		if repo.rollTaken(sp.ClassID, sp.Section, sp.RollNumber) {
			return account.Account{}, nil, account.ErrProfileConflict
		}
	}

	repo.accounts[acct.ID] = acct
	repo.profiles[acct.ID] = prof
	return acct, prof, nil
}

func (repo *AccountRepository) SetPasswordHash(ctx context.Context, acct account.Account) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	stored, ok := repo.accounts[acct.ID]
	if !ok {
		return account.ErrNotFound
	}
	stored.PasswordHash = acct.PasswordHash
	stored.UpdatedAt = acct.UpdatedAt
	repo.accounts[acct.ID] = stored
	return nil
}

func (repo *AccountRepository) rollTaken(classID, section string, roll int) bool {
	for _, prof := range repo.profiles {
		if sp, ok := prof.(account.StudentProfile); ok &&
			sp.ClassID == classID && sp.Section == section && sp.RollNumber == roll {
			return true
		}
	}
	return false
}

// lockedAllocator runs under the repository mutex held by CreateAccount, so
// max+1 over the stored profiles is race-free.
type lockedAllocator struct {
	repo *AccountRepository
}

func (a lockedAllocator) AllocateRollNumber(ctx context.Context, classID, section string) (int, error) {
	if a.repo.failAlloc {
		return 0, errAllocFailed
	}
	max := 0
	for _, prof := range a.repo.profiles {
		if sp, ok := prof.(account.StudentProfile); ok &&
			sp.ClassID == classID && sp.Section == section && sp.RollNumber > max {
			max = sp.RollNumber
		}
	}
	return max + 1, nil
}

// FailRollAllocation makes subsequent student registrations fail during
// profile construction. Tests use it to assert that no account row survives a
// failed profile build.
func (repo *AccountRepository) FailRollAllocation() {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.failAlloc = true
}

func (repo *AccountRepository) Len() int {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return len(repo.accounts)
}

var errAllocFailed = fmt.Errorf("roll allocation unavailable")
