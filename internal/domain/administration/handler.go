package administration

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carehome/carehome/internal/access"
	"github.com/carehome/carehome/internal/platform/auth"
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
	api.POST("/groups/:groupId/prescriptions/:prescriptionId/administrations", h.Administer)
	api.GET("/groups/:groupId/prescriptions/:prescriptionId/administrations", h.ListByPrescription)
	api.GET("/groups/:groupId/residents/:residentId/administrations", h.ListByResident)
	api.GET("/groups/:groupId/administrations", h.ListByGroup)
	api.GET("/groups/:groupId/administrations/:logId", h.Get)
	api.DELETE("/groups/:groupId/administrations/:logId", h.Revert)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrPrescriptionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInsufficientStock):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrFutureTimestamp), errors.Is(err, ErrInvalidStatus):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func (h *Handler) Administer(c echo.Context) error {
	groupID, err := h.policy.RequireMember(c)
	if err != nil {
		return err
	}
	prescriptionID, err := uuid.Parse(c.Param("prescriptionId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid prescription id")
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	l, err := h.svc.Administer(ctx, groupID, auth.UserIDFromContext(ctx), prescriptionID, in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *Handler) Get(c echo.Context) error {
	groupID, err := h.policy.RequireMember(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("logId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid log id")
	}
	l, err := h.svc.Get(c.Request().Context(), groupID, id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, l)
}

// Revert undoes a log and its stock effect; only the group admin may do it.
func (h *Handler) Revert(c echo.Context) error {
	groupID, err := h.policy.RequireAdmin(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("logId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid log id")
	}
	if err := h.svc.Revert(c.Request().Context(), groupID, id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListByPrescription(c echo.Context) error {
	groupID, err := h.policy.RequireMember(c)
	if err != nil {
		return err
	}
	prescriptionID, err := uuid.Parse(c.Param("prescriptionId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid prescription id")
	}
	p := pagination.FromContext(c)
	entries, total, err := h.svc.ListByPrescription(c.Request().Context(), groupID, prescriptionID, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if entries == nil {
		entries = []*Entry{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, p.Limit, p.Offset))
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
	p := pagination.FromContext(c)
	entries, total, err := h.svc.ListByResident(c.Request().Context(), groupID, residentID, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if entries == nil {
		entries = []*Entry{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, p.Limit, p.Offset))
}

func (h *Handler) ListByGroup(c echo.Context) error {
	groupID, err := h.policy.RequireMember(c)
	if err != nil {
		return err
	}
	var day *time.Time
	if raw := c.QueryParam("day"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "day must be YYYY-MM-DD")
		}
		day = &parsed
	}
	p := pagination.FromContext(c)
	entries, total, err := h.svc.ListByGroup(c.Request().Context(), groupID, day, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if entries == nil {
		entries = []*Entry{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, p.Limit, p.Offset))
}
