package api

import (
	"fmt"
	"net/http"

	"github.com/example/eshop/pkg/auth"
	"github.com/example/eshop/pkg/orders"
	"github.com/gin-gonic/gin"
)

// listOrders serves both the single-order lookup (?orderId=) and the list
// form (optionally ?userId=). A single-order miss is a 200 with null data.
func (s *Server) listOrders(c *gin.Context) {
	fields := fieldsParam(c)

	if orderID := c.Query("orderId"); orderID != "" {
		order, err := s.deps.Orders.GetByID(c.Request.Context(), orderID, fields)
		if err != nil {
			respondDomainError(c, err)
			return
		}
		if order == nil {
			respond(c, http.StatusOK, nil)
			return
		}
		respond(c, http.StatusOK, order)
		return
	}

	list, err := s.deps.Orders.List(c.Request.Context(), c.Query("userId"), fields)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respond(c, http.StatusOK, list)
}

func (s *Server) totalSales(c *gin.Context) {
	total, err := s.deps.Orders.TotalSales(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"totalSales": total})
}

func (s *Server) createOrder(c *gin.Context) {
	var req orders.CreateRequest
	if !s.bindJSON(c, &req) {
		return
	}

	var caller *orders.Caller
	if claims, ok := auth.ClaimsFromContext(c); ok {
		caller = &orders.Caller{UserID: claims.UserID, IsAdmin: claims.IsAdmin}
	}

	order, err := s.deps.Orders.Create(c.Request.Context(), &req, caller)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respond(c, http.StatusCreated, order)
}

func (s *Server) updateOrderStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if !s.bindJSON(c, &req) {
		return
	}

	order, err := s.deps.Orders.UpdateStatus(c.Request.Context(), c.Query("orderId"), req.Status)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"id":     order.ID.Hex(),
		"status": order.Status,
	})
}

// deleteOrder removes the order and cascades over its line items. Item
// failures surface in the response next to the success message, since the
// order itself is already gone by then.
func (s *Server) deleteOrder(c *gin.Context) {
	result, err := s.deps.Orders.Delete(c.Request.Context(), c.Query("orderId"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	if len(result.ItemFailures) > 0 {
		c.JSON(http.StatusOK, Envelope{
			Data: gin.H{
				"message": fmt.Sprintf("Order id %s is successfully deleted!", result.OrderID.Hex()),
			},
			Status: http.StatusOK,
			Error:  fmt.Sprintf("failed to delete order items: %v", result.ItemFailures),
		})
		return
	}

	respond(c, http.StatusOK, gin.H{
		"message": fmt.Sprintf("Order id %s is successfully deleted!", result.OrderID.Hex()),
	})
}
