package account

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

const (
	studentIDPrefix = "STU"
	teacherIDPrefix = "TCH"
	parentIDPrefix  = "PAR"

	// AdminDepartment is the department every admin profile is created with.
	AdminDepartment = "Administration"

	dateOfBirthLayout = "2006-01-02"
)

// RollAllocator hands out the next roll number for a (classID, section) pair.
// Implementations must make the allocation atomic with the profile insert that
// consumes it: two concurrent enrollments into the same pair may never receive
// the same number. A bare read-max-then-insert does not qualify.
type RollAllocator interface {
	AllocateRollNumber(ctx context.Context, classID, section string) (int, error)
}

// BuildProfile constructs exactly one role-specific Profile for the given
// account from its registration payload. It performs no side effects outside
// the caller-supplied allocator, which is expected to be scoped to the
// transaction the profile will be inserted in.
func BuildProfile(ctx context.Context, acct Account, reg Registration, alloc RollAllocator) (Profile, error) {
	switch r := reg.(type) {
	case *NewStudent:
		dob, err := time.Parse(dateOfBirthLayout, r.DateOfBirth)
		if err != nil {
			return nil, errors.Wrap(err, "parsing date of birth")
		}
		roll, err := alloc.AllocateRollNumber(ctx, r.ClassID, r.Section)
		if err != nil {
			return nil, errors.Wrap(err, "allocating roll number")
		}
		return StudentProfile{
			AccountID:         acct.ID,
			StudentID:         newRoleID(studentIDPrefix),
			ClassID:           r.ClassID,
			Section:           r.Section,
			RollNumber:        roll,
			DateOfBirth:       dob,
			AdmissionDate:     NowFunc().UTC(),
			EmergencyName:     r.EmergencyName,
			EmergencyPhone:    r.EmergencyPhone,
			EmergencyRelation: r.EmergencyRelation,
		}, nil

	case *NewTeacher:
		return TeacherProfile{
			AccountID:     acct.ID,
			TeacherID:     newRoleID(teacherIDPrefix),
			Qualification: r.Qualification,
			Department:    r.Department,
			Experience:    r.Experience,
			Salary:        r.Salary,
			JoiningDate:   NowFunc().UTC(),
		}, nil

	case *NewParent:
		return ParentProfile{
			AccountID:  acct.ID,
			ParentID:   parentID(acct),
			Occupation: r.Occupation,
			Income:     null.Float64FromPtr(r.Income),
		}, nil

	case *NewAdmin:
		return AdminProfile{
			AccountID:  acct.ID,
			Department: AdminDepartment,
		}, nil
	}
	// Registration is sealed; a new variant must be handled above.
	return nil, errors.Errorf("unhandled registration type %T", reg)
}

// newRoleID returns a collision-resistant role identifier: the prefix plus
// the first 8 hex chars of a fresh uuid, uppercased.
func newRoleID(prefix string) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return prefix + strings.ToUpper(id[:8])
}

// parentID derives the parent identifier from the owning account's id suffix.
// The UNIQUE constraint on the column catches the (unlikely) suffix collision.
func parentID(acct Account) string {
	id := acct.ID
	if len(id) > 6 {
		id = id[len(id)-6:]
	}
	return parentIDPrefix + strings.ToUpper(id)
}
