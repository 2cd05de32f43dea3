package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwalcott/stagecrew/internal/composition"
	"github.com/mwalcott/stagecrew/internal/helpers"
	"github.com/mwalcott/stagecrew/internal/lifecycle"
	"github.com/mwalcott/stagecrew/internal/models"
	"github.com/mwalcott/stagecrew/internal/pricing"
)

type EventRequest struct {
	Title           string      `json:"title" binding:"required"`
	Description     string      `json:"description"`
	Location        string      `json:"location"`
	StartTime       time.Time   `json:"start_time" binding:"required"`
	EndTime         time.Time   `json:"end_time" binding:"required"`
	SetupCompleteAt time.Time   `json:"setup_complete_at"`
	ClientIDs       []uuid.UUID `json:"client_ids"`
	ContactID       *uuid.UUID  `json:"contact_id"`
	BillingOrgID    *uuid.UUID  `json:"billing_org_id"`
	PricelistID     *uuid.UUID  `json:"pricelist_id"`
	MaxCrew         *int        `json:"max_crew"`
}

func CreateEvent(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	user, ok := currentUser(c, gormDB)
	if !ok {
		return
	}

	clients := make([]models.Organization, 0, len(req.ClientIDs))
	for _, id := range req.ClientIDs {
		var org models.Organization
		if err := gormDB.First(&org, "id = ?", id).Error; err != nil {
			helpers.RespondWithError(c, http.StatusNotFound, "Client organization not found.")
			return
		}
		clients = append(clients, org)
	}

	event := models.Event{
		ID:              uuid.New(),
		Title:           req.Title,
		Description:     req.Description,
		Location:        req.Location,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		SetupCompleteAt: req.SetupCompleteAt,
		Clients:         clients,
		ContactID:       req.ContactID,
		BillingOrgID:    req.BillingOrgID,
		PricelistID:     req.PricelistID,
		MaxCrew:         req.MaxCrew,
		PricingMode:     models.PricingCatalog,
		SubmittedByID:   &user.ID,
	}

	if err := gormDB.Create(&event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create event.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Event created successfully.",
		"event_id": event.ID,
	})
}

func ListEvents(c *gin.Context) {
	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	page := c.DefaultQuery("page", "1")
	limit := c.DefaultQuery("limit", "10")

	pageNum, err := helpers.StringToInt(page)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid page number.")
		return
	}

	limitNum, err := helpers.StringToInt(limit)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid limit.")
		return
	}

	query := gormDB.Model(&models.Event{})
	switch c.Query("state") {
	case "open":
		query = query.Where("NOT closed AND NOT cancelled")
	case "closed":
		query = query.Where("closed")
	case "cancelled":
		query = query.Where("cancelled")
	case "unapproved":
		query = query.Where("NOT approved AND NOT closed AND NOT cancelled")
	case "unreviewed":
		query = query.Where("approved AND NOT reviewed AND NOT closed AND NOT cancelled")
	}

	var totalCount int64
	query.Count(&totalCount)

	var events []models.Event
	offset := (pageNum - 1) * limitNum
	err = query.Preload("Clients").Offset(offset).Limit(limitNum).Order("start_time DESC").Find(&events).Error
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving events.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events":      events,
		"total":       totalCount,
		"page":        pageNum,
		"limit":       limitNum,
		"total_pages": (totalCount + int64(limitNum) - 1) / int64(limitNum),
	})
}

func GetEvent(c *gin.Context) {
	eventID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	var event models.Event
	err := gormDB.
		Preload("Clients").
		Preload("BillingOrg").
		Preload("Contact").
		Preload("ServiceInstances.Service.Category").
		Preload("ExtraInstances.Extra.Category").
		Preload("Rentals").
		Preload("Discounts.Categories").
		Preload("Fees.Categories").
		Preload("Pricelist.ServicePrices").
		Preload("Pricelist.DiscountPrices").
		Preload("Pricelist.FeePrices").
		Preload("CrewChiefs.User").
		First(&event, "id = ?", eventID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving event.")
		return
	}

	statusSnap, err := lifecycle.SnapshotOf(gormDB, &event, time.Now())
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error deriving event status.")
		return
	}

	quote := pricing.Price(pricing.SnapshotOf(&event))

	c.JSON(http.StatusOK, gin.H{
		"event":  event,
		"status": lifecycle.Status(statusSnap),
		"quote": gin.H{
			"services_total":  quote.ServicesTotal,
			"extras_total":    quote.ExtrasTotal,
			"rentals_total":   quote.RentalsTotal,
			"fees_total":      quote.FeesTotal,
			"discount_total":  quote.DiscountTotal,
			"cost_total":      quote.CostTotal,
			"fee_values":      quote.FeeValues,
			"discount_values": quote.DiscountValues,
		},
	})
}

type ServiceInstanceRequest struct {
	ServiceID uuid.UUID `json:"service_id" binding:"required"`
	Detail    string    `json:"detail"`
}

func AddEventService(c *gin.Context) {
	eventID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req ServiceInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	instance, err := composition.NewService(gormDB).AddService(c.Request.Context(), eventID, req.ServiceID, req.Detail)
	if err != nil {
		helpers.RespondWithFault(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Service added to event.",
		"instance_id": instance.ID,
	})
}

func RemoveEventService(c *gin.Context) {
	eventID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	instanceID, ok := parseUUIDParam(c, "instanceId")
	if !ok {
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	if err := composition.NewService(gormDB).RemoveService(c.Request.Context(), eventID, instanceID); err != nil {
		helpers.RespondWithFault(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Service removed from event."})
}

type ExtraInstanceRequest struct {
	ExtraID  uuid.UUID `json:"extra_id" binding:"required"`
	Quantity int       `json:"quantity"`
}

func AddEventExtra(c *gin.Context) {
	eventID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req ExtraInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	instance, err := composition.NewService(gormDB).AddExtra(c.Request.Context(), eventID, req.ExtraID, req.Quantity)
	if err != nil {
		helpers.RespondWithFault(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Extra added to event.",
		"instance_id": instance.ID,
	})
}

type ExtraQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func UpdateEventExtraQuantity(c *gin.Context) {
	eventID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	instanceID, ok := parseUUIDParam(c, "instanceId")
	if !ok {
		return
	}

	var req ExtraQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. A quantity is required.")
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	if err := composition.NewService(gormDB).UpdateExtraQuantity(c.Request.Context(), eventID, instanceID, req.Quantity); err != nil {
		helpers.RespondWithFault(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Extra quantity updated."})
}

func RemoveEventExtra(c *gin.Context) {
	eventID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	instanceID, ok := parseUUIDParam(c, "instanceId")
	if !ok {
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	if err := composition.NewService(gormDB).RemoveExtra(c.Request.Context(), eventID, instanceID); err != nil {
		helpers.RespondWithFault(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Extra removed from event."})
}

type RentalRequest struct {
	Name             string `json:"name" binding:"required"`
	UnitCost         string `json:"unit_cost" binding:"required"`
	Quantity         int    `json:"quantity"`
	RentalFeeApplied bool   `json:"rental_fee_applied"`
}

func AddEventRental(c *gin.Context) {
	eventID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req RentalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	unitCost, err := helpers.StringToDecimal(req.UnitCost)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid unit cost.")
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	rental, err := composition.NewService(gormDB).AddRental(c.Request.Context(), eventID, req.Name, unitCost, req.Quantity, req.RentalFeeApplied)
	if err != nil {
		helpers.RespondWithFault(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Rental added to event.",
		"rental_id": rental.ID,
	})
}

func RemoveEventRental(c *gin.Context) {
	eventID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	rentalID, ok := parseUUIDParam(c, "rentalId")
	if !ok {
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	if err := composition.NewService(gormDB).RemoveRental(c.Request.Context(), eventID, rentalID); err != nil {
		helpers.RespondWithFault(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Rental removed from event."})
}

type RuleSelectionRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

func SetEventDiscounts(c *gin.Context) {
	eventID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req RuleSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	if err := composition.NewService(gormDB).SetDiscounts(c.Request.Context(), eventID, req.IDs); err != nil {
		helpers.RespondWithFault(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event discounts updated."})
}

func SetEventFees(c *gin.Context) {
	eventID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req RuleSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	if err := composition.NewService(gormDB).SetFees(c.Request.Context(), eventID, req.IDs); err != nil {
		helpers.RespondWithFault(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event fees updated."})
}
