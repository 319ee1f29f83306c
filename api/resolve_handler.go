package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/lecternhq/lectern"
	"github.com/lecternhq/lectern/id"
)

func (a *API) registerResolveRoutes(router forge.Router) error {
	g := router.Group("/v1/authz", forge.WithGroupTags("authorization"))

	if err := g.POST("/resolve", a.resolve,
		forge.WithSummary("Resolve permission"),
		forge.WithDescription("Evaluates whether the user holds the permission on the resource."),
		forge.WithOperationID("authzResolve"),
		forge.WithRequestSchema(ResolveRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Resolution result", ResolveResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/enforce", a.enforce,
		forge.WithSummary("Enforce permission"),
		forge.WithDescription("Returns 200 if allowed, 403 if denied."),
		forge.WithOperationID("authzEnforce"),
		forge.WithRequestSchema(ResolveRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Allowed", ResolveResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/bulk-resolve", a.bulkResolve,
		forge.WithSummary("Bulk resolve permission"),
		forge.WithDescription("Resolves one permission across many resources in a single request."),
		forge.WithOperationID("authzBulkResolve"),
		forge.WithRequestSchema(BulkResolveRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Bulk results", BulkResolveResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) resolve(ctx forge.Context, req *ResolveRequest) (*ResolveResponse, error) {
	dr, err := toResolveRequest(req)
	if err != nil {
		return nil, err
	}

	result, err := a.eng.Resolve(ctx.Context(), dr)
	if err != nil {
		return nil, mapError(err)
	}

	resp := toResolveResponse(result)
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) enforce(ctx forge.Context, req *ResolveRequest) (*ResolveResponse, error) {
	dr, err := toResolveRequest(req)
	if err != nil {
		return nil, err
	}

	result, err := a.eng.Resolve(ctx.Context(), dr)
	if err != nil {
		return nil, mapError(err)
	}

	resp := toResolveResponse(result)
	if !result.Allowed {
		return resp, ctx.JSON(http.StatusForbidden, resp)
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) bulkResolve(ctx forge.Context, req *BulkResolveRequest) (*BulkResolveResponse, error) {
	if req.UserID == "" || req.Permission == "" {
		return nil, forge.BadRequest("user_id and permission are required")
	}
	if len(req.ResourceIDs) == 0 {
		return nil, forge.BadRequest("resource_ids cannot be empty")
	}

	resIDs := make([]id.ResourceID, 0, len(req.ResourceIDs))
	for _, raw := range req.ResourceIDs {
		resID, err := id.ParseResourceID(raw)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid resource ID %q: %v", raw, err))
		}
		resIDs = append(resIDs, resID)
	}

	results, err := a.eng.BulkResolve(ctx.Context(), req.UserID, resIDs, req.Permission)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &BulkResolveResponse{Results: make(map[string]ResolveResponse, len(results))}
	for key, result := range results {
		resp.Results[key] = *toResolveResponse(result)
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func toResolveRequest(r *ResolveRequest) (*lectern.ResolveRequest, error) {
	if r.UserID == "" || r.Permission == "" || r.ResourceID == "" {
		return nil, forge.BadRequest("user_id, resource_id, and permission are required")
	}
	resID, err := id.ParseResourceID(r.ResourceID)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid resource ID: %v", err))
	}
	return &lectern.ResolveRequest{
		UserID:     r.UserID,
		ResourceID: resID,
		Permission: r.Permission,
	}, nil
}

func toResolveResponse(r *lectern.ResolveResult) *ResolveResponse {
	resp := &ResolveResponse{
		Allowed:    r.Allowed,
		Rule:       string(r.Rule),
		Reason:     r.Reason,
		EvalTimeNs: r.EvalTimeNs,
	}
	if !r.DecidedAt.IsNil() {
		resp.DecidedAt = r.DecidedAt.String()
	}
	if !r.RoleID.IsNil() {
		resp.RoleID = r.RoleID.String()
	}
	return resp
}
