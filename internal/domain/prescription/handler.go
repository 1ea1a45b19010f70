package prescription

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carehome/carehome/internal/access"
	"github.com/carehome/carehome/pkg/pagination"
)

type Handler struct {
	svc    *Service
	policy *access.Policy
}

func NewHandler(svc *Service, policy *access.Policy) *Handler {
	return &Handler{svc: svc, policy: policy}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/groups/:groupId/residents/:residentId/prescriptions", h.Create)
	api.GET("/groups/:groupId/residents/:residentId/prescriptions", h.ListByResident)
	api.GET("/groups/:groupId/prescriptions", h.ListByGroup)
	api.GET("/groups/:groupId/prescriptions/:prescriptionId", h.Get)
	api.PUT("/groups/:groupId/prescriptions/:prescriptionId", h.Update)
	api.POST("/groups/:groupId/prescriptions/:prescriptionId/activate", h.Activate)
	api.POST("/groups/:groupId/prescriptions/:prescriptionId/deactivate", h.Deactivate)
	api.DELETE("/groups/:groupId/prescriptions/:prescriptionId", h.Delete)
}

func prescriptionIDParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("prescriptionId"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid prescription id")
	}
	return id, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrResidentNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrMedicationMissing):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

func (h *Handler) Create(c echo.Context) error {
	groupID, err := h.policy.RequireMember(c)
	if err != nil {
		return err
	}
	residentID, err := uuid.Parse(c.Param("residentId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid resident id")
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Create(c.Request().Context(), groupID, residentID, in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListByResident(c echo.Context) error {
	groupID, err := h.policy.RequireMember(c)
	if err != nil {
		return err
	}
	residentID, err := uuid.Parse(c.Param("residentId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid resident id")
	}
	list, err := h.svc.ListByResident(c.Request().Context(), groupID, residentID)
	if err != nil {
		return mapError(err)
	}
	if list == nil {
		list = []*Prescription{}
	}
	return c.JSON(http.StatusOK, list)
}

func (h *Handler) ListByGroup(c echo.Context) error {
	groupID, err := h.policy.RequireMember(c)
	if err != nil {
		return err
	}
	p := pagination.FromContext(c)
	list, total, err := h.svc.ListByGroup(c.Request().Context(), groupID, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if list == nil {
		list = []*Prescription{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(list, total, p.Limit, p.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	groupID, err := h.policy.RequireMember(c)
	if err != nil {
		return err
	}
	id, err := prescriptionIDParam(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Get(c.Request().Context(), groupID, id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Update(c echo.Context) error {
	groupID, err := h.policy.RequireMember(c)
	if err != nil {
		return err
	}
	id, err := prescriptionIDParam(c)
	if err != nil {
		return err
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Update(c.Request().Context(), groupID, id, in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Activate(c echo.Context) error {
	return h.setActive(c, true)
}

func (h *Handler) Deactivate(c echo.Context) error {
	return h.setActive(c, false)
}

func (h *Handler) setActive(c echo.Context, active bool) error {
	groupID, err := h.policy.RequireMember(c)
	if err != nil {
		return err
	}
	id, err := prescriptionIDParam(c)
	if err != nil {
		return err
	}
	p, err := h.svc.SetActive(c.Request().Context(), groupID, id, active)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Delete(c echo.Context) error {
	groupID, err := h.policy.RequireMember(c)
	if err != nil {
		return err
	}
	id, err := prescriptionIDParam(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), groupID, id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
