package domain

import "time"

// PersonnelStatus is the duty state of a service member.
type PersonnelStatus string

const (
	StatusActive   PersonnelStatus = "active"
	StatusInactive PersonnelStatus = "inactive"
	StatusLeave    PersonnelStatus = "leave"
)

// Valid reports whether s is one of the known duty states.
func (s PersonnelStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusLeave:
		return true
	}
	return false
}

// EmergencyContact is the person to notify for a service member.
type EmergencyContact struct {
	Name         string `json:"name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Relationship string `json:"relationship,omitempty"`
}

// MedicalInfo holds the medical fields kept on a record.
type MedicalInfo struct {
	BloodType   string `json:"bloodType,omitempty"`
	Allergies   string `json:"allergies,omitempty"`
	Medications string `json:"medications,omitempty"`
}

// Personnel is a single military-personnel record.
type Personnel struct {
	ID               string            `json:"_id"`
	MilitaryID       string            `json:"militaryId"`
	LastName         string            `json:"lastName"`
	FirstName        string            `json:"firstName"`
	MiddleName       string            `json:"middleName,omitempty"`
	BirthDate        time.Time         `json:"birthDate"`
	Rank             string            `json:"rank"`
	Position         string            `json:"position"`
	Unit             string            `json:"unit"`
	Phone            string            `json:"phone,omitempty"`
	Email            string            `json:"email,omitempty"`
	Address          string            `json:"address,omitempty"`
	EmergencyContact *EmergencyContact `json:"emergencyContact,omitempty"`
	MedicalInfo      *MedicalInfo      `json:"medicalInfo,omitempty"`
	ServiceStartDate time.Time         `json:"serviceStartDate"`
	Status           PersonnelStatus   `json:"status"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// PersonnelSummary is the projection used for "recent additions".
type PersonnelSummary struct {
	ID        string    `json:"_id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Rank      string    `json:"rank"`
	CreatedAt time.Time `json:"createdAt"`
}

// GroupCount is one bucket of a grouped count.
type GroupCount struct {
	Key   string `json:"_id"`
	Count int64  `json:"count"`
}

// PersonnelStatistics aggregates the registry, optionally scoped to a unit.
type PersonnelStatistics struct {
	Total           int64              `json:"total"`
	Active          int64              `json:"active"`
	Inactive        int64              `json:"inactive"`
	OnLeave         int64              `json:"onLeave"`
	RankStats       []GroupCount       `json:"rankStats"`
	UnitStats       []GroupCount       `json:"unitStats"`
	BloodTypeStats  []GroupCount       `json:"bloodTypeStats"`
	RecentAdditions []PersonnelSummary `json:"recentAdditions"`
}
