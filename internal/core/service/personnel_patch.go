package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/military-registry/personnel-api/internal/core/domain"
)

var patchValidator = validator.New()

// patchInput is the wire shape of an authorized update. Keys that are not
// part of the record schema are dropped by the JSON decoder.
type patchInput struct {
	MilitaryID       *string                  `json:"militaryId"       validate:"omitnil,min=1"`
	LastName         *string                  `json:"lastName"         validate:"omitnil,min=1"`
	FirstName        *string                  `json:"firstName"        validate:"omitnil,min=1"`
	MiddleName       *string                  `json:"middleName"`
	BirthDate        *string                  `json:"birthDate"        validate:"omitnil,min=1"`
	Rank             *string                  `json:"rank"             validate:"omitnil,min=1"`
	Position         *string                  `json:"position"         validate:"omitnil,min=1"`
	Unit             *string                  `json:"unit"             validate:"omitnil,min=1"`
	Phone            *string                  `json:"phone"`
	Email            *string                  `json:"email"`
	Address          *string                  `json:"address"`
	EmergencyContact *domain.EmergencyContact `json:"emergencyContact"`
	MedicalInfo      *domain.MedicalInfo      `json:"medicalInfo"`
	ServiceStartDate *string                  `json:"serviceStartDate" validate:"omitnil,min=1"`
	Status           *string                  `json:"status"           validate:"omitnil,oneof=active inactive leave"`
}

// decodePatch turns an authorized field map into a typed patch.
func decodePatch(fields map[string]any) (domain.PersonnelPatch, error) {
	var in patchInput
	raw, err := json.Marshal(fields)
	if err != nil {
		return domain.PersonnelPatch{}, domain.NewInputError("invalid payload")
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		var ute *json.UnmarshalTypeError
		if errors.As(err, &ute) {
			return domain.PersonnelPatch{}, domain.NewInputError("%s must be a %s", ute.Field, ute.Type.Kind())
		}
		return domain.PersonnelPatch{}, domain.NewInputError("invalid payload")
	}

	if err := patchValidator.Struct(in); err != nil {
		return domain.PersonnelPatch{}, validationError(err)
	}

	patch := domain.PersonnelPatch{
		MilitaryID:       in.MilitaryID,
		LastName:         in.LastName,
		FirstName:        in.FirstName,
		MiddleName:       in.MiddleName,
		Rank:             in.Rank,
		Position:         in.Position,
		Unit:             in.Unit,
		Phone:            in.Phone,
		Email:            in.Email,
		Address:          in.Address,
		EmergencyContact: in.EmergencyContact,
		MedicalInfo:      in.MedicalInfo,
	}
	if in.Status != nil {
		st := domain.PersonnelStatus(*in.Status)
		patch.Status = &st
	}
	if patch.BirthDate, err = parseOptionalDate("birthDate", in.BirthDate); err != nil {
		return domain.PersonnelPatch{}, err
	}
	if patch.ServiceStartDate, err = parseOptionalDate("serviceStartDate", in.ServiceStartDate); err != nil {
		return domain.PersonnelPatch{}, err
	}
	return patch, nil
}

func parseOptionalDate(field string, s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := domain.ParseDate(*s)
	if err != nil {
		return nil, domain.NewInputError("%s must be a date", field)
	}
	return &t, nil
}

// validationError joins validator failures into a single input error using
// the json names of the offending fields.
func validationError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return domain.NewInputError("invalid payload")
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		field := jsonName(fe.Field())
		switch fe.Tag() {
		case "min":
			msgs = append(msgs, field+" must not be empty")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed validation (%s)", field, fe.Tag()))
		}
	}
	return domain.NewInputError("%s", strings.Join(msgs, "; "))
}

func jsonName(goName string) string {
	if goName == "MilitaryID" {
		return "militaryId"
	}
	return strings.ToLower(goName[:1]) + goName[1:]
}
