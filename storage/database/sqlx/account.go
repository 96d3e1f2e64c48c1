package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mawazo/shule/core/account"
)

type accountRepository struct {
	db *sqlx.DB
}

var _ account.Repository = (*accountRepository)(nil)

func NewAccountRepository(db *sqlx.DB) *accountRepository {
	return &accountRepository{db: db}
}

type dbAccount struct {
	ID           string      `db:"id"`
	Name         string      `db:"name"`
	Email        string      `db:"email"`
	Role         string      `db:"role"`
	IsActive     bool        `db:"is_active"`
	Phone        null.String `db:"phone"`
	Address      null.String `db:"address"`
	PasswordHash []byte      `db:"password_hash"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func (row dbAccount) toDomain() account.Account {
	return account.Account{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		Role:         account.Role(row.Role),
		IsActive:     row.IsActive,
		Phone:        row.Phone,
		Address:      row.Address,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to account.ErrNotFound
func trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return account.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// isUniqueViolation reports whether err is a psql unique constraint violation,
// optionally on one of the given constraints.
func isUniqueViolation(err error, constraints ...string) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	if !ok || pqErr.Code != "23505" {
		return false
	}
	if len(constraints) == 0 {
		return true
	}
	for _, c := range constraints {
		if pqErr.Constraint == c {
			return true
		}
	}
	return false
}

const accountColumns = `id, name, email, role, is_active, phone, address, password_hash, created_at, updated_at`

func (repo accountRepository) GetAccountByEmail(ctx context.Context, email string) (account.Account, error) {
	var row dbAccount
	err := repo.db.GetContext(ctx, &row,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	if err != nil {
		return account.Account{}, trapNoRowsErr(err, "finding account by email")
	}
	return row.toDomain(), nil
}

func (repo accountRepository) GetActiveAccount(ctx context.Context, email string, role account.Role) (account.Account, error) {
	var row dbAccount
	err := repo.db.GetContext(ctx, &row,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1 AND role = $2 AND is_active`, email, string(role))
	if err != nil {
		return account.Account{}, trapNoRowsErr(err, "finding active account by email and role")
	}
	return row.toDomain(), nil
}

func (repo accountRepository) GetAccountByID(ctx context.Context, id string) (account.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return account.Account{}, account.ErrNotFound
	}
	var row dbAccount
	err := repo.db.GetContext(ctx, &row,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	if err != nil {
		return account.Account{}, trapNoRowsErr(err, "finding account by ID")
	}
	return row.toDomain(), nil
}

// CreateAccount inserts the account row and exactly one profile row in a
// single transaction. The roll-number allocation for students runs inside the
// same transaction, serialized per (class_id, section) by an advisory lock;
// the UNIQUE constraints are the backstop and surface as ErrProfileConflict.
func (repo accountRepository) CreateAccount(ctx context.Context, acct account.Account, reg account.Registration) (account.Account, account.Profile, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return account.Account{}, nil, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	acct.ID = uuid.New().String()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO accounts (id, name, email, role, is_active, phone, address, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		acct.ID, acct.Name, acct.Email, string(acct.Role), acct.IsActive,
		acct.Phone, acct.Address, acct.PasswordHash, acct.CreatedAt, acct.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "accounts_email_key") {
			return account.Account{}, nil, account.ErrEmailExists
		}
		return account.Account{}, nil, errors.Wrap(err, "inserting account")
	}

	prof, err := account.BuildProfile(ctx, acct, reg, txAllocator{tx: tx})
	if err != nil {
		return account.Account{}, nil, errors.Wrap(err, "building profile")
	}

	prof, err = insertProfile(ctx, tx, prof)
	if err != nil {
		if isUniqueViolation(err) {
			return account.Account{}, nil, account.ErrProfileConflict
		}
		return account.Account{}, nil, errors.Wrap(err, "inserting profile")
	}

	if err = tx.Commit(); err != nil {
		return account.Account{}, nil, errors.Wrap(err, "committing transaction")
	}
	return acct, prof, nil
}

func insertProfile(ctx context.Context, tx *sqlx.Tx, prof account.Profile) (account.Profile, error) {
	switch p := prof.(type) {
	case account.StudentProfile:
		p.ID = uuid.New().String()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO student_profile
			 (id, account_id, student_id, class_id, section, roll_number, date_of_birth, admission_date,
			  emergency_name, emergency_phone, emergency_relation)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			p.ID, p.AccountID, p.StudentID, p.ClassID, p.Section, p.RollNumber, p.DateOfBirth,
			p.AdmissionDate, p.EmergencyName, p.EmergencyPhone, p.EmergencyRelation)
		return p, err

	case account.TeacherProfile:
		p.ID = uuid.New().String()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO teacher_profile
			 (id, account_id, teacher_id, qualification, department, experience, salary, joining_date)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			p.ID, p.AccountID, p.TeacherID, p.Qualification, p.Department, p.Experience, p.Salary, p.JoiningDate)
		return p, err

	case account.ParentProfile:
		p.ID = uuid.New().String()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO parent_profile (id, account_id, parent_id, occupation, income)
			 VALUES ($1, $2, $3, $4, $5)`,
			p.ID, p.AccountID, p.ParentID, p.Occupation, p.Income)
		return p, err

	case account.AdminProfile:
		p.ID = uuid.New().String()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO admin_profile (id, account_id, department) VALUES ($1, $2, $3)`,
			p.ID, p.AccountID, p.Department)
		return p, err
	}
	return nil, errors.Errorf("unhandled profile type %T", prof)
}

func (repo accountRepository) GetProfile(ctx context.Context, acct account.Account) (account.Profile, error) {
	switch acct.Role {
	case account.RoleStudent:
		var p account.StudentProfile
		err := repo.db.QueryRowxContext(ctx,
			`SELECT id, account_id, student_id, class_id, section, roll_number, date_of_birth, admission_date,
			        emergency_name, emergency_phone, emergency_relation
			 FROM student_profile WHERE account_id = $1`, acct.ID).
			Scan(&p.ID, &p.AccountID, &p.StudentID, &p.ClassID, &p.Section, &p.RollNumber, &p.DateOfBirth,
				&p.AdmissionDate, &p.EmergencyName, &p.EmergencyPhone, &p.EmergencyRelation)
		if err != nil {
			return nil, trapNoRowsErr(err, "finding student profile")
		}
		return p, nil

	case account.RoleTeacher:
		var p account.TeacherProfile
		err := repo.db.QueryRowxContext(ctx,
			`SELECT id, account_id, teacher_id, qualification, department, experience, salary, joining_date
			 FROM teacher_profile WHERE account_id = $1`, acct.ID).
			Scan(&p.ID, &p.AccountID, &p.TeacherID, &p.Qualification, &p.Department, &p.Experience, &p.Salary, &p.JoiningDate)
		if err != nil {
			return nil, trapNoRowsErr(err, "finding teacher profile")
		}
		return p, nil

	case account.RoleParent:
		var p account.ParentProfile
		err := repo.db.QueryRowxContext(ctx,
			`SELECT id, account_id, parent_id, occupation, income FROM parent_profile WHERE account_id = $1`, acct.ID).
			Scan(&p.ID, &p.AccountID, &p.ParentID, &p.Occupation, &p.Income)
		if err != nil {
			return nil, trapNoRowsErr(err, "finding parent profile")
		}
		return p, nil

	case account.RoleAdmin:
		var p account.AdminProfile
		err := repo.db.QueryRowxContext(ctx,
			`SELECT id, account_id, department FROM admin_profile WHERE account_id = $1`, acct.ID).
			Scan(&p.ID, &p.AccountID, &p.Department)
		if err != nil {
			return nil, trapNoRowsErr(err, "finding admin profile")
		}
		return p, nil
	}
	return nil, errors.Errorf("unhandled role %q", acct.Role)
}

func (repo accountRepository) SetPasswordHash(ctx context.Context, acct account.Account) error {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		acct.ID, acct.PasswordHash, acct.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "updating password hash")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return account.ErrNotFound
	}
	return nil
}

// txAllocator allocates roll numbers inside the enclosing transaction.
// pg_advisory_xact_lock serializes concurrent allocations for the same
// (class_id, section) pair until the transaction commits or rolls back.
type txAllocator struct {
	tx *sqlx.Tx
}

var _ account.RollAllocator = txAllocator{}

func (a txAllocator) AllocateRollNumber(ctx context.Context, classID, section string) (int, error) {
	if _, err := a.tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, classID+":"+section); err != nil {
		return 0, errors.Wrap(err, "locking class section")
	}

	var next int
	err := a.tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(roll_number), 0) + 1 FROM student_profile WHERE class_id = $1 AND section = $2`,
		classID, section).Scan(&next)
	if err != nil {
		return 0, errors.Wrap(err, "reading max roll number")
	}
	return next, nil
}
