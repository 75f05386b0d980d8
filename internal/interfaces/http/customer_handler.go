package http

import (
	"github.com/ajg707/laurx-portal/internal/application/groups"
	"github.com/gofiber/fiber/v2"
)

// CustomerHandler serves derived billing facts for the admin customer detail.
type CustomerHandler struct {
	uc *groups.CustomerFactsUseCase
}

// NewCustomerHandler builds the handler.
func NewCustomerHandler(uc *groups.CustomerFactsUseCase) *CustomerHandler {
	return &CustomerHandler{uc: uc}
}

// Facts godoc
// @Summary      Customer billing facts
// @Description  Total spent, order count, subscription state and derived status of one customer.
// @Tags         customers
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "Customer ID (cus_...)"
// @Success      200  {object}  dto.CustomerFactsResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/admin/customers/{id}/facts [get]
func (h *CustomerHandler) Facts(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
