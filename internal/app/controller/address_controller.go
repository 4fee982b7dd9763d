package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/helmetkart/helmet-backend/internal/app/service"
	"github.com/helmetkart/helmet-backend/internal/middleware"
)

type AddressController struct {
	addressService service.AddressService
}

func NewAddressController(addressService service.AddressService) *AddressController {
	return &AddressController{
		addressService: addressService,
	}
}

type AddressRequest struct {
	Label      string `json:"label" binding:"omitempty,max=50"`
	FullName   string `json:"full_name" binding:"required,max=100"`
	Phone      string `json:"phone" binding:"required,min=10,max=20"`
	Line1      string `json:"line1" binding:"required,max=255"`
	Line2      string `json:"line2" binding:"omitempty,max=255"`
	City       string `json:"city" binding:"required,max=100"`
	State      string `json:"state" binding:"required,max=100"`
	PostalCode string `json:"postal_code" binding:"required,numeric,len=6"`
	Country    string `json:"country" binding:"omitempty,len=2"`
	IsDefault  bool   `json:"is_default"`
}

func (r AddressRequest) input() service.AddressInput {
	return service.AddressInput{
		Label:      r.Label,
		FullName:   r.FullName,
		Phone:      r.Phone,
		Line1:      r.Line1,
		Line2:      r.Line2,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
		Country:    r.Country,
		IsDefault:  r.IsDefault,
	}
}

// GetAddresses lists the user's saved addresses
// GET /api/v1/addresses
func (ctrl *AddressController) GetAddresses(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	addresses, err := ctrl.addressService.GetUserAddresses(userID)
	if err != nil {
		serviceErrors.Respond(c, err, "address")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"addresses": addresses,
		"count":     len(addresses),
	})
}

// CreateAddress saves a new address
// POST /api/v1/addresses
func (ctrl *AddressController) CreateAddress(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req AddressRequest
	if !bindJSON(c, &req) {
		return
	}

	address, err := ctrl.addressService.CreateAddress(userID, req.input())
	if err != nil {
		serviceErrors.Respond(c, err, "address")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"address": address})
}

// UpdateAddress replaces an address
// PUT /api/v1/addresses/:id
func (ctrl *AddressController) UpdateAddress(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	addressID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req AddressRequest
	if !bindJSON(c, &req) {
		return
	}

	address, err := ctrl.addressService.UpdateAddress(userID, addressID, req.input())
	if err != nil {
		serviceErrors.Respond(c, err, "address")
		return
	}

	c.JSON(http.StatusOK, gin.H{"address": address})
}

// DeleteAddress removes an address. Past orders keep their snapshot.
// DELETE /api/v1/addresses/:id
func (ctrl *AddressController) DeleteAddress(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	addressID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.addressService.DeleteAddress(userID, addressID); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Failed to delete address", map[string]interface{}{
			"user_id":    userID,
			"address_id": addressID,
			"error":      err.Error(),
		})
		serviceErrors.Respond(c, err, "address")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "address deleted"})
}

// SetDefaultAddress marks an address as the default
// PUT /api/v1/addresses/:id/default
func (ctrl *AddressController) SetDefaultAddress(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	addressID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.addressService.SetDefaultAddress(userID, addressID); err != nil {
		serviceErrors.Respond(c, err, "address")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "default address updated"})
}
