package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mwalcott/stagecrew/internal/helpers"
	"github.com/mwalcott/stagecrew/internal/models"
)

type PricelistRequest struct {
	Name string `json:"name" binding:"required"`
}

func CreatePricelist(c *gin.Context) {
	var req PricelistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	pricelist := models.Pricelist{Name: req.Name}
	if err := gormDB.Create(&pricelist).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create pricelist.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Pricelist created successfully.",
		"pricelist_id": pricelist.ID,
	})
}

func GetPricelist(c *gin.Context) {
	pricelistID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	var pricelist models.Pricelist
	err := gormDB.
		Preload("ServicePrices.Service").
		Preload("DiscountPrices.Discount").
		Preload("FeePrices.Fee").
		First(&pricelist, "id = ?", pricelistID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Pricelist not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving pricelist.")
		return
	}

	c.JSON(http.StatusOK, pricelist)
}

type PriceEntryRequest struct {
	ServiceID  *uuid.UUID `json:"service_id"`
	DiscountID *uuid.UUID `json:"discount_id"`
	FeeID      *uuid.UUID `json:"fee_id"`
	// Cost for service entries, percent for discount/fee entries.
	Value string `json:"value" binding:"required"`
}

// SetPricelistEntry upserts one override row. Exactly one of service_id,
// discount_id, fee_id must be set.
func SetPricelistEntry(c *gin.Context) {
	pricelistID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req PriceEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	value, err := helpers.StringToDecimal(req.Value)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid value.")
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	var pricelist models.Pricelist
	if err := gormDB.First(&pricelist, "id = ?", pricelistID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Pricelist not found.")
		return
	}

	switch {
	case req.ServiceID != nil:
		entry := models.ServicePrice{PricelistID: pricelist.ID, ServiceID: *req.ServiceID, Cost: value}
		err = gormDB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pricelist_id"}, {Name: "service_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"cost"}),
		}).Create(&entry).Error
	case req.DiscountID != nil:
		entry := models.DiscountPrice{PricelistID: pricelist.ID, DiscountID: *req.DiscountID, Percent: value}
		err = gormDB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pricelist_id"}, {Name: "discount_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"percent"}),
		}).Create(&entry).Error
	case req.FeeID != nil:
		entry := models.FeePrice{PricelistID: pricelist.ID, FeeID: *req.FeeID, Percent: value}
		err = gormDB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pricelist_id"}, {Name: "fee_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"percent"}),
		}).Create(&entry).Error
	default:
		helpers.RespondWithError(c, http.StatusBadRequest, "One of service_id, discount_id, or fee_id is required.")
		return
	}

	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to save pricelist entry.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Pricelist entry saved."})
}
