package employee

import "github.com/google/uuid"

// ManagerLevel is the position level of manager-tier approvers.
const ManagerLevel = 3

// Ref is the narrow view of an employee passed into the leave core.
type Ref struct {
	ID             uuid.UUID
	FullName       string
	Email          string
	ApproverID     *uuid.UUID
	PositionLevel  *int
	EmploymentType EmploymentType
	Roles          RoleSet
}

func (r Ref) HasRole(role Role) bool {
	return r.Roles.Has(role)
}

func (r Ref) Level() (int, bool) {
	if r.PositionLevel == nil {
		return 0, false
	}
	return *r.PositionLevel, true
}

func (r Ref) LevelIs(levels ...int) bool {
	lvl, ok := r.Level()
	if !ok {
		return false
	}
	for _, l := range levels {
		if lvl == l {
			return true
		}
	}
	return false
}

func (r Ref) IsRegular() bool {
	return r.EmploymentType == EmploymentRegular
}

// SkipsBalance reports whether leave never touches this employee's balance.
func (r Ref) SkipsBalance() bool {
	return r.EmploymentType == EmploymentProbationary || r.EmploymentType == EmploymentOJT
}
