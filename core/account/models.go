package account

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/mawazo/shule/core"
)

// Roles. The set is closed: registration payloads exist only for these four
// and NewRegistration rejects anything else.
const (
	RoleAdmin   = Role("ADMIN")
	RoleTeacher = Role("TEACHER")
	RoleStudent = Role("STUDENT")
	RoleParent  = Role("PARENT")
)

var AllRoles = []Role{RoleAdmin, RoleTeacher, RoleStudent, RoleParent}

type Role string

func (r Role) IsValid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Account is the credential-bearing identity record; exactly one per person.
// Email is stored normalized (lowercased) and is unique on that form.
type Account struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Role         Role        `json:"role"`
	IsActive     bool        `json:"is_active"`
	Phone        null.String `json:"phone"`
	Address      null.String `json:"address"`
	PasswordHash []byte      `json:"-"`
	CreatedAt    time.Time   `json:"created_at"` // UTC
	UpdatedAt    time.Time   `json:"updated_at"` // UTC
}

// Profile is the role-specific record linked 1:1 to an Account. The four
// implementations below are the only ones; kind() keeps the set sealed.
type Profile interface {
	Kind() Role
	kind() Role
}

type StudentProfile struct {
	ID                string    `json:"-"`
	AccountID         string    `json:"-"`
	StudentID         string    `json:"student_id"`
	ClassID           string    `json:"class_id"`
	Section           string    `json:"section"`
	RollNumber        int       `json:"roll_number"`
	DateOfBirth       time.Time `json:"date_of_birth"`
	AdmissionDate     time.Time `json:"admission_date"`
	EmergencyName     string    `json:"emergency_name"`
	EmergencyPhone    string    `json:"emergency_phone"`
	EmergencyRelation string    `json:"emergency_relation"`
}

type TeacherProfile struct {
	ID            string    `json:"-"`
	AccountID     string    `json:"-"`
	TeacherID     string    `json:"teacher_id"`
	Qualification string    `json:"qualification"`
	Department    string    `json:"department"`
	Experience    int       `json:"experience"`
	Salary        float64   `json:"salary"`
	JoiningDate   time.Time `json:"joining_date"`
}

type ParentProfile struct {
	ID         string       `json:"-"`
	AccountID  string       `json:"-"`
	ParentID   string       `json:"parent_id"`
	Occupation string       `json:"occupation"`
	Income     null.Float64 `json:"income"`
}

type AdminProfile struct {
	ID         string `json:"-"`
	AccountID  string `json:"-"`
	Department string `json:"department"`
}

func (p StudentProfile) Kind() Role { return RoleStudent }
func (p TeacherProfile) Kind() Role { return RoleTeacher }
func (p ParentProfile) Kind() Role  { return RoleParent }
func (p AdminProfile) Kind() Role   { return RoleAdmin }

func (p StudentProfile) kind() Role { return RoleStudent }
func (p TeacherProfile) kind() Role { return RoleTeacher }
func (p ParentProfile) kind() Role  { return RoleParent }
func (p AdminProfile) kind() Role   { return RoleAdmin }

// NewAccount carries the fields shared by every registration payload.
type NewAccount struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

func (na *NewAccount) clean() {
	na.Name = core.CleanString(na.Name)
	na.Email = core.CleanString(na.Email, true /* lower */)
	na.Phone = core.CleanString(na.Phone)
	na.Address = core.CleanString(na.Address)
}

// Registration is the closed set of role-specific registration payloads:
// NewStudent, NewTeacher, NewParent and NewAdmin. base() seals the interface
// so the factory's dispatch stays exhaustive.
type Registration interface {
	Role() Role
	base() *NewAccount
}

// NewStudent contains information needed to enroll a student.
type NewStudent struct {
	NewAccount
	ClassID           string `json:"class_id" validate:"required"`
	Section           string `json:"section" validate:"required"`
	DateOfBirth       string `json:"date_of_birth" validate:"required"`
	ParentEmail       string `json:"parent_email" validate:"omitempty,email"`
	EmergencyName     string `json:"emergency_name"`
	EmergencyPhone    string `json:"emergency_phone"`
	EmergencyRelation string `json:"emergency_relation"`
}

// NewTeacher contains information needed to register a teacher.
type NewTeacher struct {
	NewAccount
	Qualification string  `json:"qualification" validate:"required"`
	Department    string  `json:"department" validate:"required"`
	Experience    int     `json:"experience" validate:"min=0"`
	Salary        float64 `json:"salary" validate:"min=0"`
}

// NewParent contains information needed to register a parent.
type NewParent struct {
	NewAccount
	Occupation string   `json:"occupation"`
	Income     *float64 `json:"income"`
}

// NewAdmin contains information needed to register an administrator.
type NewAdmin struct {
	NewAccount
}

func (ns *NewStudent) Role() Role { return RoleStudent }
func (nt *NewTeacher) Role() Role { return RoleTeacher }
func (np *NewParent) Role() Role  { return RoleParent }
func (na *NewAdmin) Role() Role   { return RoleAdmin }

func (ns *NewStudent) base() *NewAccount { return &ns.NewAccount }
func (nt *NewTeacher) base() *NewAccount { return &nt.NewAccount }
func (np *NewParent) base() *NewAccount  { return &np.NewAccount }
func (na *NewAdmin) base() *NewAccount   { return &na.NewAccount }

// NewRegistration returns the empty registration payload for the given role.
func NewRegistration(role Role) (Registration, error) {
	switch role {
	case RoleStudent:
		return &NewStudent{}, nil
	case RoleTeacher:
		return &NewTeacher{}, nil
	case RoleParent:
		return &NewParent{}, nil
	case RoleAdmin:
		return &NewAdmin{}, nil
	}
	return nil, core.NewValidationError(nil, core.FieldError{Field: "role", Error: "invalid role"})
}

// Summary is the public view of an Account: role-appropriate fields only,
// password hash excluded. Exactly one of the role blocks is set.
type Summary struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Email   string      `json:"email"`
	Role    Role        `json:"role"`
	Phone   null.String `json:"phone"`
	Address null.String `json:"address"`

	Student *StudentProfile `json:"student,omitempty"`
	Teacher *TeacherProfile `json:"teacher,omitempty"`
	Parent  *ParentProfile  `json:"parent,omitempty"`
	Admin   *AdminProfile   `json:"admin,omitempty"`
}

func NewSummary(acct Account, prof Profile) Summary {
	s := Summary{
		ID:      acct.ID,
		Name:    acct.Name,
		Email:   acct.Email,
		Role:    acct.Role,
		Phone:   acct.Phone,
		Address: acct.Address,
	}
	switch p := prof.(type) {
	case StudentProfile:
		s.Student = &p
	case TeacherProfile:
		s.Teacher = &p
	case ParentProfile:
		s.Parent = &p
	case AdminProfile:
		s.Admin = &p
	}
	return s
}
