package handler

import (
	"github.com/military-registry/personnel-api/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message"`
}

type messageResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message"`
}

// dataResponse wraps a successful payload.
type dataResponse struct {
	Success bool `json:"success" example:"true"`
	Data    any  `json:"data"`
}

func success(data any) dataResponse {
	return dataResponse{Success: true, Data: data}
}

// --- Auth ---

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool        `json:"success" example:"true"`
	Token   string      `json:"token"`
	Role    domain.Role `json:"role"`
	Email   string      `json:"email"`
}

// --- Users ---

type updateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// --- Personnel ---

type personnelRequest struct {
	MilitaryID       string                   `json:"militaryId"       validate:"required"`
	LastName         string                   `json:"lastName"         validate:"required"`
	FirstName        string                   `json:"firstName"        validate:"required"`
	MiddleName       string                   `json:"middleName"`
	BirthDate        string                   `json:"birthDate"        validate:"required"`
	Rank             string                   `json:"rank"             validate:"required"`
	Position         string                   `json:"position"         validate:"required"`
	Unit             string                   `json:"unit"             validate:"required"`
	Phone            string                   `json:"phone"`
	Email            string                   `json:"email"            validate:"omitempty,email"`
	Address          string                   `json:"address"`
	EmergencyContact *domain.EmergencyContact `json:"emergencyContact"`
	MedicalInfo      *domain.MedicalInfo      `json:"medicalInfo"`
	ServiceStartDate string                   `json:"serviceStartDate" validate:"required"`
	Status           string                   `json:"status"           validate:"omitempty,oneof=active inactive leave"`
}

func (r personnelRequest) toDomain() (*domain.Personnel, error) {
	birth, err := domain.ParseDate(r.BirthDate)
	if err != nil {
		return nil, domain.NewInputError("birthDate must be a date")
	}
	start, err := domain.ParseDate(r.ServiceStartDate)
	if err != nil {
		return nil, domain.NewInputError("serviceStartDate must be a date")
	}
	return &domain.Personnel{
		MilitaryID:       r.MilitaryID,
		LastName:         r.LastName,
		FirstName:        r.FirstName,
		MiddleName:       r.MiddleName,
		BirthDate:        birth,
		Rank:             r.Rank,
		Position:         r.Position,
		Unit:             r.Unit,
		Phone:            r.Phone,
		Email:            r.Email,
		Address:          r.Address,
		EmergencyContact: r.EmergencyContact,
		MedicalInfo:      r.MedicalInfo,
		ServiceStartDate: start,
		Status:           domain.PersonnelStatus(r.Status),
	}, nil
}

type listPersonnelQuery struct {
	Page   int    `query:"page"`
	Limit  int    `query:"limit"`
	Search string `query:"search"`
	Status string `query:"status"`
	Unit   string `query:"unit"`
}

type pagination struct {
	Current int   `json:"current"`
	Pages   int   `json:"pages"`
	Total   int64 `json:"total"`
}

type listPersonnelResponse struct {
	Success    bool                `json:"success" example:"true"`
	Data       []*domain.Personnel `json:"data"`
	Pagination pagination          `json:"pagination"`
}
