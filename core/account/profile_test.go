package account

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
)

type stubAllocator struct {
	n   int
	err error
}

func (a stubAllocator) AllocateRollNumber(ctx context.Context, classID, section string) (int, error) {
	return a.n, a.err
}

func TestBuildProfile_student(t *testing.T) {
	acct := Account{ID: "4f9a2c3e-8a01-4a7d-9a55-1f3b5c7d9e0f", Role: RoleStudent}
	reg := &NewStudent{
		ClassID:       "class-5",
		Section:       "A",
		DateOfBirth:   "2010-04-21",
		EmergencyName: "Mama Yemo",
	}

	prof, err := BuildProfile(context.Background(), acct, reg, stubAllocator{n: 7})
	if err != nil {
		t.Fatalf("BuildProfile(): %v", err)
	}
	sp, ok := prof.(StudentProfile)
	if !ok {
		t.Fatalf("BuildProfile() = %T, want StudentProfile", prof)
	}

	if sp.AccountID != acct.ID {
		t.Errorf("AccountID = %v, want %v", sp.AccountID, acct.ID)
	}
	if !strings.HasPrefix(sp.StudentID, "STU") || len(sp.StudentID) != 11 {
		t.Errorf("StudentID = %q, want STU + 8 hex chars", sp.StudentID)
	}
	if sp.RollNumber != 7 {
		t.Errorf("RollNumber = %v, want 7", sp.RollNumber)
	}
	wantDob := time.Date(2010, 4, 21, 0, 0, 0, 0, time.UTC)
	if !sp.DateOfBirth.Equal(wantDob) {
		t.Errorf("DateOfBirth = %v, want %v", sp.DateOfBirth, wantDob)
	}
	if sp.AdmissionDate.IsZero() {
		t.Error("AdmissionDate is zero")
	}
	if sp.EmergencyName != "Mama Yemo" {
		t.Errorf("EmergencyName = %q", sp.EmergencyName)
	}
}

func TestBuildProfile_studentErrors(t *testing.T) {
	acct := Account{ID: "acct-01", Role: RoleStudent}
	allocErr := errors.New("lock timeout")

	tests := []struct {
		name  string
		reg   *NewStudent
		alloc RollAllocator
	}{
		{
			name:  "bad date of birth",
			reg:   &NewStudent{ClassID: "c", Section: "A", DateOfBirth: "21/04/2010"},
			alloc: stubAllocator{n: 1},
		},
		{
			name:  "allocator failure",
			reg:   &NewStudent{ClassID: "c", Section: "A", DateOfBirth: "2010-04-21"},
			alloc: stubAllocator{err: allocErr},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildProfile(context.Background(), acct, tt.reg, tt.alloc); err == nil {
				t.Error("BuildProfile() error = nil, want error")
			}
		})
	}
}

func TestBuildProfile_teacher(t *testing.T) {
	acct := Account{ID: "acct-02", Role: RoleTeacher}
	reg := &NewTeacher{Qualification: "M.Sc", Department: "Physics"}

	prof, err := BuildProfile(context.Background(), acct, reg, nil)
	if err != nil {
		t.Fatalf("BuildProfile(): %v", err)
	}
	tp := prof.(TeacherProfile)

	if !strings.HasPrefix(tp.TeacherID, "TCH") || len(tp.TeacherID) != 11 {
		t.Errorf("TeacherID = %q, want TCH + 8 hex chars", tp.TeacherID)
	}
	if tp.Experience != 0 || tp.Salary != 0 {
		t.Errorf("Experience = %v, Salary = %v; want zero defaults", tp.Experience, tp.Salary)
	}
	if tp.JoiningDate.IsZero() {
		t.Error("JoiningDate is zero")
	}
}

func TestBuildProfile_parent(t *testing.T) {
	acct := Account{ID: "4f9a2c3e-8a01-4a7d-9a55-1f3b5c7d9e0f", Role: RoleParent}
	income := 1200.50

	prof, err := BuildProfile(context.Background(), acct, &NewParent{Income: &income}, nil)
	if err != nil {
		t.Fatalf("BuildProfile(): %v", err)
	}
	pp := prof.(ParentProfile)

	// parent id is derived from the account id suffix
	if pp.ParentID != "PAR7D9E0F" {
		t.Errorf("ParentID = %q, want PAR7D9E0F", pp.ParentID)
	}
	if !pp.Income.Valid || pp.Income.Float64 != income {
		t.Errorf("Income = %+v, want %v", pp.Income, income)
	}

	// income is optional
	prof, err = BuildProfile(context.Background(), acct, &NewParent{}, nil)
	if err != nil {
		t.Fatalf("BuildProfile(): %v", err)
	}
	if pp = prof.(ParentProfile); pp.Income.Valid {
		t.Errorf("Income = %+v, want null", pp.Income)
	}
}

func TestBuildProfile_admin(t *testing.T) {
	acct := Account{ID: "acct-03", Role: RoleAdmin}

	prof, err := BuildProfile(context.Background(), acct, &NewAdmin{}, nil)
	if err != nil {
		t.Fatalf("BuildProfile(): %v", err)
	}
	if ap := prof.(AdminProfile); ap.Department != AdminDepartment {
		t.Errorf("Department = %q, want %q", ap.Department, AdminDepartment)
	}
}

func TestNewRegistration(t *testing.T) {
	for _, role := range AllRoles {
		reg, err := NewRegistration(role)
		if err != nil {
			t.Fatalf("NewRegistration(%v): %v", role, err)
		}
		if reg.Role() != role {
			t.Errorf("NewRegistration(%v).Role() = %v", role, reg.Role())
		}
	}

	if _, err := NewRegistration("SUPERUSER"); err == nil {
		t.Error("NewRegistration() error = nil, want validation error")
	}
}
