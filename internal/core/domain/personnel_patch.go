package domain

import (
	"fmt"
	"time"
)

// PersonnelPatch is a typed, already-authorized partial update. Nil fields
// are left untouched.
type PersonnelPatch struct {
	MilitaryID       *string
	LastName         *string
	FirstName        *string
	MiddleName       *string
	BirthDate        *time.Time
	Rank             *string
	Position         *string
	Unit             *string
	Phone            *string
	Email            *string
	Address          *string
	EmergencyContact *EmergencyContact
	MedicalInfo      *MedicalInfo
	ServiceStartDate *time.Time
	Status           *PersonnelStatus
}

// Fields lists the document field names set on p, in schema order.
func (p PersonnelPatch) Fields() []string {
	var out []string
	add := func(set bool, name string) {
		if set {
			out = append(out, name)
		}
	}
	add(p.MilitaryID != nil, "militaryId")
	add(p.LastName != nil, "lastName")
	add(p.FirstName != nil, "firstName")
	add(p.MiddleName != nil, "middleName")
	add(p.BirthDate != nil, "birthDate")
	add(p.Rank != nil, "rank")
	add(p.Position != nil, "position")
	add(p.Unit != nil, "unit")
	add(p.Phone != nil, "phone")
	add(p.Email != nil, "email")
	add(p.Address != nil, "address")
	add(p.EmergencyContact != nil, "emergencyContact")
	add(p.MedicalInfo != nil, "medicalInfo")
	add(p.ServiceStartDate != nil, "serviceStartDate")
	add(p.Status != nil, "status")
	return out
}

// Empty reports whether p changes nothing.
func (p PersonnelPatch) Empty() bool {
	return len(p.Fields()) == 0
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// ParseDate accepts a calendar date or an RFC 3339 timestamp and returns it in UTC.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
