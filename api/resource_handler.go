package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/lecternhq/lectern/id"
	"github.com/lecternhq/lectern/resource"
)

func (a *API) registerResourceRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("resources"))

	if err := g.POST("/resources", a.createResource,
		forge.WithSummary("Create resource"),
		forge.WithDescription("Registers a content node (shelf, book, chapter, or note) in the hierarchy."),
		forge.WithOperationID("createResource"),
		forge.WithRequestSchema(CreateResourceRequest{}),
		forge.WithCreatedResponse(&resource.Resource{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/resources/:resourceId", a.getResource,
		forge.WithSummary("Get resource"),
		forge.WithDescription("Returns details of a specific resource node."),
		forge.WithOperationID("getResource"),
		forge.WithResponseSchema(http.StatusOK, "Resource details", &resource.Resource{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/resources/:resourceId/move", a.moveResource,
		forge.WithSummary("Move resource"),
		forge.WithDescription("Reparents a node. Rejects moves that would create a cycle."),
		forge.WithOperationID("moveResource"),
		forge.WithRequestSchema(MoveResourceRequest{}),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/resources/:resourceId", a.deleteResource,
		forge.WithSummary("Delete resource"),
		forge.WithDescription("Deletes a node and its entire subtree, cascading anchored grants."),
		forge.WithOperationID("deleteResource"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/resources", a.listResources,
		forge.WithSummary("List resources"),
		forge.WithDescription("Lists resource nodes with optional filters."),
		forge.WithOperationID("listResources"),
		forge.WithRequestSchema(ListResourcesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Resource list", []*resource.Resource{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/resources/:resourceId/children", a.listChildResources,
		forge.WithSummary("List child resources"),
		forge.WithDescription("Lists the direct children of a resource node."),
		forge.WithOperationID("listChildResources"),
		forge.WithResponseSchema(http.StatusOK, "Child list", []*resource.Resource{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) createResource(ctx forge.Context, req *CreateResourceRequest) (*resource.Resource, error) {
	if req.Kind == "" {
		return nil, forge.BadRequest("kind is required")
	}
	if req.Name == "" {
		return nil, forge.BadRequest("name is required")
	}

	r := &resource.Resource{
		Kind:     resource.Kind(req.Kind),
		Name:     req.Name,
		Metadata: req.Metadata,
	}

	if req.ParentID != "" {
		pid, err := id.ParseResourceID(req.ParentID)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid parent_id: %v", err))
		}
		r.ParentID = &pid
	}

	if err := a.eng.CreateResource(ctx.Context(), r); err != nil {
		return nil, mapError(err)
	}

	return r, ctx.JSON(http.StatusCreated, r)
}

func (a *API) getResource(ctx forge.Context, _ *GetResourceRequest) (*resource.Resource, error) {
	resID, err := id.ParseResourceID(ctx.Param("resourceId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid resource ID: %v", err))
	}

	r, err := a.eng.Store().GetResource(ctx.Context(), resID)
	if err != nil {
		return nil, mapError(err)
	}

	return r, ctx.JSON(http.StatusOK, r)
}

func (a *API) moveResource(ctx forge.Context, req *MoveResourceRequest) (*struct{}, error) {
	resID, err := id.ParseResourceID(ctx.Param("resourceId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid resource ID: %v", err))
	}

	var newParent *id.ResourceID
	if req.NewParentID != "" {
		pid, err := id.ParseResourceID(req.NewParentID)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid new_parent_id: %v", err))
		}
		newParent = &pid
	}

	if err := a.eng.MoveResource(ctx.Context(), resID, newParent); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) deleteResource(ctx forge.Context, _ *GetResourceRequest) (*struct{}, error) {
	resID, err := id.ParseResourceID(ctx.Param("resourceId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid resource ID: %v", err))
	}

	if err := a.eng.DeleteResource(ctx.Context(), resID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listResources(ctx forge.Context, req *ListResourcesRequest) ([]*resource.Resource, error) {
	filter := &resource.ListFilter{
		Kind:   resource.Kind(req.Kind),
		Search: req.Search,
		Limit:  defaultLimit(req.Limit),
		Offset: req.Offset,
	}

	if req.ParentID != "" {
		pid, err := id.ParseResourceID(req.ParentID)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid parent_id: %v", err))
		}
		filter.ParentID = &pid
	}

	resources, err := a.eng.Store().ListResources(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return resources, ctx.JSON(http.StatusOK, resources)
}

func (a *API) listChildResources(ctx forge.Context, _ *GetResourceRequest) ([]*resource.Resource, error) {
	resID, err := id.ParseResourceID(ctx.Param("resourceId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid resource ID: %v", err))
	}

	children, err := a.eng.Store().ListChildResources(ctx.Context(), resID)
	if err != nil {
		return nil, mapError(err)
	}

	return children, ctx.JSON(http.StatusOK, children)
}
