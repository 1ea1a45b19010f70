package medication

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
	api.POST("/groups/:groupId/medications", h.Create)
	api.GET("/groups/:groupId/medications", h.List)
	api.GET("/groups/:groupId/medications/:medicationId", h.Get)
	api.PUT("/groups/:groupId/medications/:medicationId", h.Update)
	api.DELETE("/groups/:groupId/medications/:medicationId", h.Delete)
	api.POST("/groups/:groupId/medications/:medicationId/restock", h.Restock)
}

func medicationIDParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("medicationId"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid medication id")
	}
	return id, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNameTaken), errors.Is(err, ErrInUse):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

func (h *Handler) Create(c echo.Context) error {
	groupID, err := h.policy.RequireMember(c)
	if err != nil {
		return err
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m, err := h.svc.Create(c.Request().Context(), groupID, in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) List(c echo.Context) error {
	groupID, err := h.policy.RequireMember(c)
	if err != nil {
		return err
	}
	p := pagination.FromContext(c)
	meds, total, err := h.svc.List(c.Request().Context(), groupID, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if meds == nil {
		meds = []*Medication{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(meds, total, p.Limit, p.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	groupID, err := h.policy.RequireMember(c)
	if err != nil {
		return err
	}
	id, err := medicationIDParam(c)
	if err != nil {
		return err
	}
	m, err := h.svc.Get(c.Request().Context(), groupID, id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) Update(c echo.Context) error {
	groupID, err := h.policy.RequireMember(c)
	if err != nil {
		return err
	}
	id, err := medicationIDParam(c)
	if err != nil {
		return err
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m, err := h.svc.Update(c.Request().Context(), groupID, id, in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) Delete(c echo.Context) error {
	groupID, err := h.policy.RequireAdmin(c)
	if err != nil {
		return err
	}
	id, err := medicationIDParam(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), groupID, id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type restockRequest struct {
	Amount int `json:"amount"`
}

func (h *Handler) Restock(c echo.Context) error {
	groupID, err := h.policy.RequireMember(c)
	if err != nil {
		return err
	}
	id, err := medicationIDParam(c)
	if err != nil {
		return err
	}
	var req restockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m, err := h.svc.Restock(c.Request().Context(), groupID, id, req.Amount)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, m)
}
