package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/military-registry/personnel-api/internal/api/middleware"
	"github.com/military-registry/personnel-api/internal/core/domain"
	"github.com/military-registry/personnel-api/internal/core/ports"
)

type stubPersonnelService struct {
	listInput ports.ListPersonnelInput
	created   *domain.Personnel
	updateID  string
	fields    map[string]any
	actor     *domain.Identity
	statsUnit string
	err       error
}

func (s *stubPersonnelService) ListPersonnel(_ context.Context, in ports.ListPersonnelInput) (*ports.ListPersonnelResult, error) {
	s.listInput = in
	if s.err != nil {
		return nil, s.err
	}
	return &ports.ListPersonnelResult{
		Items: []*domain.Personnel{{ID: "1", LastName: "Smith"}},
		Total: 21,
		Page:  2,
		Pages: 3,
	}, nil
}

func (s *stubPersonnelService) GetPersonnel(_ context.Context, id string) (*domain.Personnel, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Personnel{ID: id}, nil
}

func (s *stubPersonnelService) CreatePersonnel(_ context.Context, actor *domain.Identity, p *domain.Personnel) (*domain.Personnel, error) {
	s.actor, s.created = actor, p
	if s.err != nil {
		return nil, s.err
	}
	out := *p
	out.ID = "new"
	return &out, nil
}

func (s *stubPersonnelService) UpdatePersonnel(_ context.Context, actor *domain.Identity, id string, fields map[string]any) (*domain.Personnel, error) {
	s.actor, s.updateID, s.fields = actor, id, fields
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Personnel{ID: id, Status: domain.StatusLeave}, nil
}

func (s *stubPersonnelService) DeletePersonnel(_ context.Context, actor *domain.Identity, id string) error {
	s.actor, s.updateID = actor, id
	return s.err
}

func (s *stubPersonnelService) Units(context.Context) ([]string, error) {
	return []string{"Alpha", "Bravo"}, s.err
}

func (s *stubPersonnelService) Statistics(_ context.Context, unit string) (*domain.PersonnelStatistics, error) {
	s.statsUnit = unit
	return &domain.PersonnelStatistics{Total: 3}, s.err
}

func (s *stubPersonnelService) AuditTrail(_ context.Context, id string) ([]*domain.AuditEvent, error) {
	return []*domain.AuditEvent{{ID: "e1", PersonnelID: id, Action: domain.AuditUpdated}}, s.err
}

var (
	adminIdentity = &domain.Identity{ID: "admin-1", Role: domain.RoleAdmin}
	userIdentity  = &domain.Identity{ID: "user-1", Role: domain.RoleUser}
)

func personnelContext(e *echo.Echo, req *http.Request, id *domain.Identity) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != nil {
		middleware.SetIdentity(c, id)
	}
	return c, rec
}

func TestPersonnelHandler_List(t *testing.T) {
	e := newTestEcho()
	stub := &stubPersonnelService{}
	h := NewPersonnelHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/personnel?page=2&limit=10&search=smi&status=active&unit=Alpha", nil)
	c, rec := personnelContext(e, req, userIdentity)

	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	want := ports.ListPersonnelInput{Search: "smi", Status: "active", Unit: "Alpha", Page: 2, Limit: 10}
	if stub.listInput != want {
		t.Fatalf("unexpected input: %+v", stub.listInput)
	}

	var resp listPersonnelResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !resp.Success || len(resp.Data) != 1 {
		t.Fatalf("unexpected payload: %s", rec.Body.String())
	}
	if resp.Pagination != (pagination{Current: 2, Pages: 3, Total: 21}) {
		t.Fatalf("unexpected pagination: %+v", resp.Pagination)
	}
}

func TestPersonnelHandler_List_BadPage(t *testing.T) {
	e := newTestEcho()
	h := NewPersonnelHandler(&stubPersonnelService{})

	c, _ := personnelContext(e, httptest.NewRequest(http.MethodGet, "/api/personnel?page=abc", nil), userIdentity)

	var he *echo.HTTPError
	if err := h.List(c); !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestPersonnelHandler_Create(t *testing.T) {
	e := newTestEcho()
	stub := &stubPersonnelService{}
	h := NewPersonnelHandler(stub)

	body := `{"militaryId":"M-1","lastName":"Smith","firstName":"John","birthDate":"1990-05-01",
		"rank":"Sergeant","position":"Driver","unit":"Alpha","serviceStartDate":"2015-01-10T00:00:00Z",
		"medicalInfo":{"bloodType":"O+"}}`
	c, rec := personnelContext(e, jsonRequest(http.MethodPost, "/api/personnel", body), adminIdentity)

	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if stub.actor != adminIdentity {
		t.Fatalf("actor not passed through")
	}
	if !stub.created.BirthDate.Equal(time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected birth date: %s", stub.created.BirthDate)
	}
	if stub.created.MedicalInfo == nil || stub.created.MedicalInfo.BloodType != "O+" {
		t.Fatalf("medical info not mapped: %+v", stub.created.MedicalInfo)
	}
}

func TestPersonnelHandler_Create_MissingFields(t *testing.T) {
	e := newTestEcho()
	stub := &stubPersonnelService{}
	h := NewPersonnelHandler(stub)

	c, _ := personnelContext(e, jsonRequest(http.MethodPost, "/api/personnel", `{"lastName":"Smith"}`), adminIdentity)

	if err := h.Create(c); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if stub.created != nil {
		t.Fatalf("service must not be called")
	}
}

func TestPersonnelHandler_Create_BadDate(t *testing.T) {
	e := newTestEcho()
	h := NewPersonnelHandler(&stubPersonnelService{})

	body := `{"militaryId":"M-1","lastName":"Smith","firstName":"John","birthDate":"yesterday",
		"rank":"Sergeant","position":"Driver","unit":"Alpha","serviceStartDate":"2015-01-10"}`
	c, _ := personnelContext(e, jsonRequest(http.MethodPost, "/api/personnel", body), adminIdentity)

	if err := h.Create(c); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPersonnelHandler_Update_PassesRawFields(t *testing.T) {
	e := newTestEcho()
	stub := &stubPersonnelService{}
	h := NewPersonnelHandler(stub)

	req := jsonRequest(http.MethodPut, "/api/personnel/abc", `{"status":"leave","rank":"General"}`)
	c, rec := personnelContext(e, req, userIdentity)
	c.SetParamNames("id")
	c.SetParamValues("abc")

	if err := h.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.updateID != "abc" || stub.actor != userIdentity {
		t.Fatalf("unexpected call: id=%s actor=%+v", stub.updateID, stub.actor)
	}
	if len(stub.fields) != 2 || stub.fields["status"] != "leave" || stub.fields["rank"] != "General" {
		t.Fatalf("unexpected fields: %+v", stub.fields)
	}
}

func TestPersonnelHandler_Update_EmptyBody(t *testing.T) {
	e := newTestEcho()
	stub := &stubPersonnelService{}
	h := NewPersonnelHandler(stub)

	c, _ := personnelContext(e, jsonRequest(http.MethodPut, "/api/personnel/abc", ""), adminIdentity)
	c.SetParamNames("id")
	c.SetParamValues("abc")

	if err := h.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if len(stub.fields) != 0 {
		t.Fatalf("expected no fields, got %+v", stub.fields)
	}
}

func TestPersonnelHandler_Update_InvalidJSON(t *testing.T) {
	e := newTestEcho()
	stub := &stubPersonnelService{}
	h := NewPersonnelHandler(stub)

	c, _ := personnelContext(e, jsonRequest(http.MethodPut, "/api/personnel/abc", `["status"]`), adminIdentity)

	var he *echo.HTTPError
	if err := h.Update(c); !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
	if stub.fields != nil {
		t.Fatalf("service must not be called")
	}
}

func TestPersonnelHandler_Update_NoIdentity(t *testing.T) {
	e := newTestEcho()
	stub := &stubPersonnelService{}
	h := NewPersonnelHandler(stub)

	c, _ := personnelContext(e, jsonRequest(http.MethodPut, "/api/personnel/abc", `{"status":"leave"}`), nil)

	if err := h.Update(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestPersonnelHandler_Update_PropagatesPolicyDenial(t *testing.T) {
	e := newTestEcho()
	h := NewPersonnelHandler(&stubPersonnelService{err: domain.ErrStatusOnly})

	c, _ := personnelContext(e, jsonRequest(http.MethodPut, "/api/personnel/abc", `{"rank":"General"}`), userIdentity)

	if err := h.Update(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestPersonnelHandler_Delete(t *testing.T) {
	e := newTestEcho()
	stub := &stubPersonnelService{}
	h := NewPersonnelHandler(stub)

	c, rec := personnelContext(e, httptest.NewRequest(http.MethodDelete, "/api/personnel/abc", nil), adminIdentity)
	c.SetParamNames("id")
	c.SetParamValues("abc")

	if err := h.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || stub.updateID != "abc" {
		t.Fatalf("unexpected result: code=%d id=%s", rec.Code, stub.updateID)
	}
}

func TestPersonnelHandler_Get_NotFound(t *testing.T) {
	e := newTestEcho()
	h := NewPersonnelHandler(&stubPersonnelService{err: domain.ErrPersonnelNotFound})

	c, _ := personnelContext(e, httptest.NewRequest(http.MethodGet, "/api/personnel/abc", nil), userIdentity)

	if err := h.Get(c); !errors.Is(err, domain.ErrPersonnelNotFound) {
		t.Fatalf("expected ErrPersonnelNotFound, got %v", err)
	}
}

func TestPersonnelHandler_StatisticsUnit(t *testing.T) {
	e := newTestEcho()
	stub := &stubPersonnelService{}
	h := NewPersonnelHandler(stub)

	c, rec := personnelContext(e, httptest.NewRequest(http.MethodGet, "/api/personnel/statistics?unit=Bravo", nil), userIdentity)

	if err := h.Statistics(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if stub.statsUnit != "Bravo" {
		t.Fatalf("expected unit Bravo, got %q", stub.statsUnit)
	}

	var resp struct {
		Success bool                       `json:"success"`
		Data    domain.PersonnelStatistics `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !resp.Success || resp.Data.Total != 3 {
		t.Fatalf("unexpected payload: %s", rec.Body.String())
	}
}
