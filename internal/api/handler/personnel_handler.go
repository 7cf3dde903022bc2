package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/military-registry/personnel-api/internal/core/ports"
)

// PersonnelHandler handles HTTP requests for personnel records.
type PersonnelHandler struct {
	service ports.PersonnelService
}

func NewPersonnelHandler(service ports.PersonnelService) *PersonnelHandler {
	return &PersonnelHandler{service: service}
}

// List handles GET /api/personnel.
//
// @Summary      List personnel records
// @Tags         personnel
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Page size (default 10, max 100)"
// @Param        search  query     string  false  "Case-insensitive match on last name, first name or military id"
// @Param        status  query     string  false  "active, inactive or leave"
// @Param        unit    query     string  false  "Exact unit name"
// @Success      200     {object}  listPersonnelResponse
// @Failure      400     {object}  errorResponse
// @Failure      401     {object}  errorResponse
// @Router       /api/personnel [get]
func (h *PersonnelHandler) List(c echo.Context) error {
	var q listPersonnelQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters").SetInternal(err)
	}

	result, err := h.service.ListPersonnel(c.Request().Context(), ports.ListPersonnelInput{
		Search: q.Search,
		Status: q.Status,
		Unit:   q.Unit,
		Page:   q.Page,
		Limit:  q.Limit,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listPersonnelResponse{
		Success: true,
		Data:    result.Items,
		Pagination: pagination{
			Current: result.Page,
			Pages:   result.Pages,
			Total:   result.Total,
		},
	})
}

// Get handles GET /api/personnel/:id.
//
// @Summary      Get a personnel record
// @Tags         personnel
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Record id"
// @Success      200  {object}  dataResponse{data=domain.Personnel}
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/personnel/{id} [get]
func (h *PersonnelHandler) Get(c echo.Context) error {
	p, err := h.service.GetPersonnel(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, success(p))
}

// Create handles POST /api/personnel.
//
// @Summary      Create a personnel record
// @Tags         personnel
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      personnelRequest  true  "Record"
// @Success      201   {object}  dataResponse{data=domain.Personnel}
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /api/personnel [post]
func (h *PersonnelHandler) Create(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}

	var req personnelRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := req.toDomain()
	if err != nil {
		return err
	}

	created, err := h.service.CreatePersonnel(c.Request().Context(), actor, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, success(created))
}

// Update handles PUT /api/personnel/:id. The body is an arbitrary field map;
// non-admins may only change status and any other field they send is ignored.
//
// @Summary      Update a personnel record
// @Tags         personnel
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "Record id"
// @Param        body  body      map[string]any  true  "Fields to change"
// @Success      200   {object}  dataResponse{data=domain.Personnel}
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/personnel/{id} [put]
func (h *PersonnelHandler) Update(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}

	fields, err := decodeFields(c.Request().Body)
	if err != nil {
		return err
	}

	updated, err := h.service.UpdatePersonnel(c.Request().Context(), actor, c.Param("id"), fields)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, success(updated))
}

// decodeFields reads a JSON object body. An empty body is an empty map.
func decodeFields(body io.Reader) (map[string]any, error) {
	fields := map[string]any{}
	if body == nil {
		return fields, nil
	}
	if err := json.NewDecoder(body).Decode(&fields); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid payload").SetInternal(err)
	}
	return fields, nil
}

// Delete handles DELETE /api/personnel/:id.
//
// @Summary      Delete a personnel record
// @Tags         personnel
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Record id"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/personnel/{id} [delete]
func (h *PersonnelHandler) Delete(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	if err := h.service.DeletePersonnel(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "personnel record deleted"})
}

// Units handles GET /api/personnel/units.
//
// @Summary      List distinct units
// @Tags         personnel
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dataResponse{data=[]string}
// @Failure      401  {object}  errorResponse
// @Router       /api/personnel/units [get]
func (h *PersonnelHandler) Units(c echo.Context) error {
	units, err := h.service.Units(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, success(units))
}

// Statistics handles GET /api/personnel/statistics.
//
// @Summary      Registry statistics
// @Tags         personnel
// @Produce      json
// @Security     BearerAuth
// @Param        unit  query     string  false  "Restrict to one unit"
// @Success      200   {object}  dataResponse{data=domain.PersonnelStatistics}
// @Failure      401   {object}  errorResponse
// @Router       /api/personnel/statistics [get]
func (h *PersonnelHandler) Statistics(c echo.Context) error {
	stats, err := h.service.Statistics(c.Request().Context(), c.QueryParam("unit"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, success(stats))
}

// Audit handles GET /api/personnel/:id/audit.
//
// @Summary      Change history of a record
// @Tags         personnel
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Record id"
// @Success      200  {object}  dataResponse{data=[]domain.AuditEvent}
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/personnel/{id}/audit [get]
func (h *PersonnelHandler) Audit(c echo.Context) error {
	events, err := h.service.AuditTrail(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, success(events))
}
