package group

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carehome/carehome/internal/access"
	"github.com/carehome/carehome/internal/platform/auth"
)

type Handler struct {
	svc    *Service
	policy *access.Policy
}

func NewHandler(svc *Service, policy *access.Policy) *Handler {
	return &Handler{svc: svc, policy: policy}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/groups", h.Create)
	api.GET("/groups", h.ListMine)
	api.POST("/groups/join", h.Join)
	api.GET("/groups/:groupId", h.Get)
	api.PUT("/groups/:groupId", h.Update)
	api.DELETE("/groups/:groupId", h.Delete)
	api.GET("/groups/:groupId/access-code", h.AccessCode)
	api.POST("/groups/:groupId/access-code/rotate", h.RotateAccessCode)
	api.GET("/groups/:groupId/members", h.Members)
	api.DELETE("/groups/:groupId/members/:userId", h.RemoveMember)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	g, err := h.svc.Create(ctx, auth.UserIDFromContext(ctx), in)
	if err != nil {
		if errors.Is(err, ErrNameTaken) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, g)
}

func (h *Handler) ListMine(c echo.Context) error {
	ctx := c.Request().Context()
	groups, err := h.svc.ListForUser(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if groups == nil {
		groups = []*Group{}
	}
	return c.JSON(http.StatusOK, groups)
}

type joinRequest struct {
	AccessCode string `json:"access_code"`
}

func (h *Handler) Join(c echo.Context) error {
	var req joinRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	g, err := h.svc.JoinWithCode(ctx, auth.UserIDFromContext(ctx), req.AccessCode)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyMember):
			return echo.NewHTTPError(http.StatusConflict, "already a member of this group")
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "no group with this access code")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, g)
}

func (h *Handler) Get(c echo.Context) error {
	groupID, err := h.policy.RequireMember(c)
	if err != nil {
		return err
	}
	g, err := h.svc.Get(c.Request().Context(), groupID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "group not found")
	}
	return c.JSON(http.StatusOK, g)
}

func (h *Handler) Update(c echo.Context) error {
	groupID, err := h.policy.RequireAdmin(c)
	if err != nil {
		return err
	}
	var in UpdateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	g, err := h.svc.Update(c.Request().Context(), groupID, in)
	if err != nil {
		if errors.Is(err, ErrNameTaken) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, g)
}

func (h *Handler) Delete(c echo.Context) error {
	groupID, err := h.policy.RequireAdmin(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), groupID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "group not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) AccessCode(c echo.Context) error {
	groupID, err := h.policy.RequireAdmin(c)
	if err != nil {
		return err
	}
	code, err := h.svc.AccessCode(c.Request().Context(), groupID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "group not found")
	}
	return c.JSON(http.StatusOK, map[string]string{"access_code": code.String()})
}

func (h *Handler) RotateAccessCode(c echo.Context) error {
	groupID, err := h.policy.RequireAdmin(c)
	if err != nil {
		return err
	}
	code, err := h.svc.RotateAccessCode(c.Request().Context(), groupID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "group not found")
	}
	return c.JSON(http.StatusOK, map[string]string{"access_code": code.String()})
}

func (h *Handler) Members(c echo.Context) error {
	groupID, err := h.policy.RequireMember(c)
	if err != nil {
		return err
	}
	members, err := h.svc.Members(c.Request().Context(), groupID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "group not found")
	}
	if members == nil {
		members = []*Member{}
	}
	return c.JSON(http.StatusOK, members)
}

func (h *Handler) RemoveMember(c echo.Context) error {
	groupID, err := h.policy.RequireAdmin(c)
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	if err := h.svc.RemoveMember(c.Request().Context(), groupID, userID); err != nil {
		if errors.Is(err, ErrCannotRemoveAdmin) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusNotFound, "membership not found")
	}
	return c.NoContent(http.StatusNoContent)
}
