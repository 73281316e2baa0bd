package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/richardquay/urg-ride-maker/internal/store"
)

type RideHandler struct {
	rides store.RideStore
}

func NewRideHandler(rides store.RideStore) *RideHandler {
	return &RideHandler{rides: rides}
}

// List returns every stored ride, oldest first.
func (h *RideHandler) List(c *gin.Context) {
	rides, err := h.rides.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "could not load rides"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rides": rides, "count": len(rides)})
}

// Get returns one ride by its announcement message ID.
func (h *RideHandler) Get(c *gin.Context) {
	ride, err := h.rides.FindByMessageID(c.Request.Context(), c.Param("messageId"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "ride not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "could not load ride"})
		return
	}
	c.JSON(http.StatusOK, ride)
}
