package resident

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
	api.POST("/groups/:groupId/residents", h.Create)
	api.GET("/groups/:groupId/residents", h.List)
	api.GET("/groups/:groupId/residents/:residentId", h.Get)
	api.PUT("/groups/:groupId/residents/:residentId", h.Update)
	api.DELETE("/groups/:groupId/residents/:residentId", h.Delete)

	api.POST("/groups/:groupId/residents/:residentId/contacts", h.AddContact)
	api.GET("/groups/:groupId/residents/:residentId/contacts", h.Contacts)
	api.DELETE("/groups/:groupId/residents/:residentId/contacts/:contactId", h.RemoveContact)

	api.GET("/groups/:groupId/residents/:residentId/caregivers", h.Caregivers)
	api.PUT("/groups/:groupId/residents/:residentId/caregivers/:userId", h.AssignCaregiver)
	api.DELETE("/groups/:groupId/residents/:residentId/caregivers/:userId", h.UnassignCaregiver)
}

func residentIDParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("residentId"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid resident id")
	}
	return id, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotAssigned):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrCPFTaken):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNotMember):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrInvalidCPF), errors.Is(err, ErrInvalidCNS), errors.Is(err, ErrBirthInFuture):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
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
	res, err := h.svc.Create(c.Request().Context(), groupID, in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) List(c echo.Context) error {
	groupID, err := h.policy.RequireMember(c)
	if err != nil {
		return err
	}
	p := pagination.FromContext(c)
	residents, total, err := h.svc.List(c.Request().Context(), groupID, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if residents == nil {
		residents = []*Resident{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(residents, total, p.Limit, p.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	groupID, err := h.policy.RequireMember(c)
	if err != nil {
		return err
	}
	id, err := residentIDParam(c)
	if err != nil {
		return err
	}
	res, err := h.svc.Get(c.Request().Context(), groupID, id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) Update(c echo.Context) error {
	groupID, err := h.policy.RequireMember(c)
	if err != nil {
		return err
	}
	id, err := residentIDParam(c)
	if err != nil {
		return err
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.Update(c.Request().Context(), groupID, id, in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) Delete(c echo.Context) error {
	groupID, err := h.policy.RequireMember(c)
	if err != nil {
		return err
	}
	id, err := residentIDParam(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), groupID, id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) AddContact(c echo.Context) error {
	groupID, err := h.policy.RequireMember(c)
	if err != nil {
		return err
	}
	id, err := residentIDParam(c)
	if err != nil {
		return err
	}
	var in ContactInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	contact, err := h.svc.AddContact(c.Request().Context(), groupID, id, in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, contact)
}

func (h *Handler) Contacts(c echo.Context) error {
	groupID, err := h.policy.RequireMember(c)
	if err != nil {
		return err
	}
	id, err := residentIDParam(c)
	if err != nil {
		return err
	}
	contacts, err := h.svc.Contacts(c.Request().Context(), groupID, id)
	if err != nil {
		return mapError(err)
	}
	if contacts == nil {
		contacts = []*Contact{}
	}
	return c.JSON(http.StatusOK, contacts)
}

func (h *Handler) RemoveContact(c echo.Context) error {
	groupID, err := h.policy.RequireMember(c)
	if err != nil {
		return err
	}
	id, err := residentIDParam(c)
	if err != nil {
		return err
	}
	contactID, err := uuid.Parse(c.Param("contactId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid contact id")
	}
	if err := h.svc.RemoveContact(c.Request().Context(), groupID, id, contactID); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Caregivers(c echo.Context) error {
	groupID, err := h.policy.RequireMember(c)
	if err != nil {
		return err
	}
	id, err := residentIDParam(c)
	if err != nil {
		return err
	}
	caregivers, err := h.svc.Caregivers(c.Request().Context(), groupID, id)
	if err != nil {
		return mapError(err)
	}
	if caregivers == nil {
		caregivers = []*Caregiver{}
	}
	return c.JSON(http.StatusOK, caregivers)
}

func (h *Handler) AssignCaregiver(c echo.Context) error {
	groupID, err := h.policy.RequireMember(c)
	if err != nil {
		return err
	}
	id, err := residentIDParam(c)
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	if err := h.svc.AssignCaregiver(c.Request().Context(), groupID, id, userID); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UnassignCaregiver(c echo.Context) error {
	groupID, err := h.policy.RequireMember(c)
	if err != nil {
		return err
	}
	id, err := residentIDParam(c)
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	if err := h.svc.UnassignCaregiver(c.Request().Context(), groupID, id, userID); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
