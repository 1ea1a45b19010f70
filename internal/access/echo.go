package access

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carehome/carehome/internal/platform/auth"
)

// GroupIDParam parses the :groupId path parameter.
func GroupIDParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("groupId"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid group id")
	}
	return id, nil
}

// RequireMember checks that the authenticated user belongs to the group in
// the request path and returns the group id.
func (p *Policy) RequireMember(c echo.Context) (uuid.UUID, error) {
	groupID, err := GroupIDParam(c)
	if err != nil {
		return uuid.Nil, err
	}
	ctx := c.Request().Context()
	if !p.IsMember(ctx, auth.UserIDFromContext(ctx), groupID) {
		return uuid.Nil, echo.NewHTTPError(http.StatusForbidden, "not a member of this group")
	}
	return groupID, nil
}

// RequireAdmin checks that the authenticated user administers the group in
// the request path and returns the group id.
func (p *Policy) RequireAdmin(c echo.Context) (uuid.UUID, error) {
	groupID, err := GroupIDParam(c)
	if err != nil {
		return uuid.Nil, err
	}
	ctx := c.Request().Context()
	if !p.IsAdmin(ctx, auth.UserIDFromContext(ctx), groupID) {
		return uuid.Nil, echo.NewHTTPError(http.StatusForbidden, "group admin required")
	}
	return groupID, nil
}
