package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/lecternhq/lectern/assignment"
	"github.com/lecternhq/lectern/id"
)

func (a *API) registerAssignmentRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("assignments"))

	if err := g.POST("/assignments", a.assignRole,
		forge.WithSummary("Assign role"),
		forge.WithDescription("Assigns a role to a user, optionally with an expiry."),
		forge.WithOperationID("assignRole"),
		forge.WithRequestSchema(AssignRoleRequest{}),
		forge.WithCreatedResponse(&assignment.Assignment{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/assignments/unassign", a.unassignRole,
		forge.WithSummary("Unassign role"),
		forge.WithDescription("Removes a role from a user."),
		forge.WithOperationID("unassignRole"),
		forge.WithRequestSchema(UnassignRoleRequest{}),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/assignments", a.listAssignments,
		forge.WithSummary("List assignments"),
		forge.WithDescription("Lists role assignments with optional filters."),
		forge.WithOperationID("listAssignments"),
		forge.WithRequestSchema(ListAssignmentsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Assignment list", []*assignment.Assignment{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/assignments/purge-expired", a.purgeExpiredAssignments,
		forge.WithSummary("Purge expired assignments"),
		forge.WithDescription("Deletes assignment rows whose expiry has passed. Housekeeping only."),
		forge.WithOperationID("purgeExpiredAssignments"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) assignRole(ctx forge.Context, req *AssignRoleRequest) (*assignment.Assignment, error) {
	if req.UserID == "" {
		return nil, forge.BadRequest("user_id is required")
	}
	roleID, err := id.ParseRoleID(req.RoleID)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid role_id: %v", err))
	}

	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			return nil, forge.BadRequest("invalid expires_at timestamp")
		}
		expiresAt = &t
	}

	asgn, err := a.eng.AssignRole(ctx.Context(), req.UserID, roleID, req.GrantedBy, expiresAt)
	if err != nil {
		return nil, mapError(err)
	}

	return asgn, ctx.JSON(http.StatusCreated, asgn)
}

func (a *API) unassignRole(ctx forge.Context, req *UnassignRoleRequest) (*struct{}, error) {
	if req.UserID == "" {
		return nil, forge.BadRequest("user_id is required")
	}
	roleID, err := id.ParseRoleID(req.RoleID)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid role_id: %v", err))
	}

	if err := a.eng.UnassignRole(ctx.Context(), req.UserID, roleID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listAssignments(ctx forge.Context, req *ListAssignmentsRequest) ([]*assignment.Assignment, error) {
	filter := &assignment.ListFilter{
		UserID: req.UserID,
		Limit:  defaultLimit(req.Limit),
		Offset: req.Offset,
	}

	if req.RoleID != "" {
		rid, err := id.ParseRoleID(req.RoleID)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid role_id: %v", err))
		}
		filter.RoleID = &rid
	}

	assignments, err := a.eng.Store().ListAssignments(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return assignments, ctx.JSON(http.StatusOK, assignments)
}

func (a *API) purgeExpiredAssignments(ctx forge.Context, _ *struct{}) (*struct{}, error) {
	if _, err := a.eng.PurgeExpiredAssignments(ctx.Context()); err != nil {
		return nil, mapError(err)
	}
	return nil, ctx.NoContent(http.StatusNoContent)
}
