package http

import (
	"github.com/ajg707/laurx-portal/internal/application/dto"
	"github.com/ajg707/laurx-portal/internal/application/groups"
	"github.com/gofiber/fiber/v2"
)

// GroupHandler serves the admin customer-group endpoints.
type GroupHandler struct {
	uc *groups.GroupUseCase
}

// NewGroupHandler builds the handler.
func NewGroupHandler(uc *groups.GroupUseCase) *GroupHandler {
	return &GroupHandler{uc: uc}
}

// Create godoc
// @Summary      Create customer group
// @Description  Static groups take an optional customer_ids list; dynamic groups need criteria with at least one field.
// @Tags         groups
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateGroupRequest  true  "Group"
// @Success      201   {object}  dto.GroupResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/admin/groups [post]
func (h *GroupHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateGroupRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      List customer groups
// @Tags         groups
// @Security     Bearer
// @Produce      json
// @Param        limit   query     int  false  "Page size (max 100)"
// @Param        offset  query     int  false  "Offset"
// @Success      200     {object}  dto.GroupListResponse
// @Router       /api/admin/groups [get]
func (h *GroupHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "limit and offset must be integers"})
	}
	out, err := h.uc.List(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Get customer group
// @Tags         groups
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "Group ID"
// @Success      200  {object}  dto.GroupResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/admin/groups/{id} [get]
func (h *GroupHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Update customer group
// @Description  Omitted fields are left unchanged. customer_ids replaces the member set of a static group; criteria replaces the predicate of a dynamic group.
// @Tags         groups
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "Group ID"
// @Param        body  body      dto.UpdateGroupRequest  true  "Changes"
// @Success      200   {object}  dto.GroupResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/admin/groups/{id} [put]
func (h *GroupHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateGroupRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Delete customer group
// @Tags         groups
// @Security     Bearer
// @Param        id   path  string  true  "Group ID"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/admin/groups/{id} [delete]
func (h *GroupHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Customers godoc
// @Summary      Resolve group members
// @Description  Static groups return the stored members. Dynamic groups are evaluated against the current billing snapshot.
// @Tags         groups
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "Group ID"
// @Success      200  {object}  dto.GroupCustomersResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/admin/groups/{id}/customers [get]
func (h *GroupHandler) Customers(c *fiber.Ctx) error {
	out, err := h.uc.ResolveMembers(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// AddCustomers godoc
// @Summary      Add customers to a static group
// @Tags         groups
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                   true  "Group ID"
// @Param        body  body      dto.GroupMembersRequest  true  "Customer IDs"
// @Success      200   {object}  dto.GroupResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/admin/groups/{id}/customers [post]
func (h *GroupHandler) AddCustomers(c *fiber.Ctx) error {
	var in dto.GroupMembersRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.AddCustomers(c.UserContext(), c.Params("id"), in.CustomerIDs)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// RemoveCustomers godoc
// @Summary      Remove customers from a static group
// @Tags         groups
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                   true  "Group ID"
// @Param        body  body      dto.GroupMembersRequest  true  "Customer IDs"
// @Success      200   {object}  dto.GroupResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/admin/groups/{id}/customers [delete]
func (h *GroupHandler) RemoveCustomers(c *fiber.Ctx) error {
	var in dto.GroupMembersRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.RemoveCustomers(c.UserContext(), c.Params("id"), in.CustomerIDs)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Preview godoc
// @Summary      Preview dynamic criteria
// @Description  Evaluates criteria against the current snapshot without saving a group.
// @Tags         groups
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.GroupCriteria  true  "Criteria"
// @Success      200   {object}  dto.GroupPreviewResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/admin/groups/preview [post]
func (h *GroupHandler) Preview(c *fiber.Ctx) error {
	var in dto.GroupCriteria
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Preview(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
