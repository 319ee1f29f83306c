package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/lecternhq/lectern/grant"
	"github.com/lecternhq/lectern/id"
)

func (a *API) registerGrantRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("grants"))

	if err := g.POST("/grants", a.createGrant,
		forge.WithSummary("Create grant"),
		forge.WithDescription("Grants a permission to a role on a resource node. The grant is inherited by the node's subtree."),
		forge.WithOperationID("createGrant"),
		forge.WithRequestSchema(CreateGrantRequest{}),
		forge.WithCreatedResponse(&grant.Grant{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/grants/revoke", a.revokeGrant,
		forge.WithSummary("Revoke grant"),
		forge.WithDescription("Removes a grant identified by its (role, resource, permission) triple."),
		forge.WithOperationID("revokeGrant"),
		forge.WithRequestSchema(RevokeGrantRequest{}),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/grants", a.listGrants,
		forge.WithSummary("List grants"),
		forge.WithDescription("Lists grants with optional filters."),
		forge.WithOperationID("listGrants"),
		forge.WithRequestSchema(ListGrantsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Grant list", []*grant.Grant{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) createGrant(ctx forge.Context, req *CreateGrantRequest) (*grant.Grant, error) {
	roleID, resID, permID, err := parseGrantTriple(req.RoleID, req.ResourceID, req.PermissionID)
	if err != nil {
		return nil, err
	}

	g, err := a.eng.Grant(ctx.Context(), roleID, resID, permID, req.GrantedBy)
	if err != nil {
		return nil, mapError(err)
	}

	return g, ctx.JSON(http.StatusCreated, g)
}

func (a *API) revokeGrant(ctx forge.Context, req *RevokeGrantRequest) (*struct{}, error) {
	roleID, resID, permID, err := parseGrantTriple(req.RoleID, req.ResourceID, req.PermissionID)
	if err != nil {
		return nil, err
	}

	if err := a.eng.Revoke(ctx.Context(), roleID, resID, permID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listGrants(ctx forge.Context, req *ListGrantsRequest) ([]*grant.Grant, error) {
	filter := &grant.ListFilter{
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
	if req.ResourceID != "" {
		sid, err := id.ParseResourceID(req.ResourceID)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid resource_id: %v", err))
		}
		filter.ResourceID = &sid
	}
	if req.PermissionID != "" {
		pid, err := id.ParsePermissionID(req.PermissionID)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid permission_id: %v", err))
		}
		filter.PermissionID = &pid
	}

	grants, err := a.eng.Store().ListGrants(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return grants, ctx.JSON(http.StatusOK, grants)
}

func parseGrantTriple(rawRole, rawRes, rawPerm string) (id.RoleID, id.ResourceID, id.PermissionID, error) {
	roleID, err := id.ParseRoleID(rawRole)
	if err != nil {
		return id.RoleID{}, id.ResourceID{}, id.PermissionID{}, forge.BadRequest(fmt.Sprintf("invalid role_id: %v", err))
	}
	resID, err := id.ParseResourceID(rawRes)
	if err != nil {
		return id.RoleID{}, id.ResourceID{}, id.PermissionID{}, forge.BadRequest(fmt.Sprintf("invalid resource_id: %v", err))
	}
	permID, err := id.ParsePermissionID(rawPerm)
	if err != nil {
		return id.RoleID{}, id.ResourceID{}, id.PermissionID{}, forge.BadRequest(fmt.Sprintf("invalid permission_id: %v", err))
	}
	return roleID, resID, permID, nil
}
