package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mwalcott/stagecrew/internal/helpers"
	"github.com/mwalcott/stagecrew/internal/models"
)

type RuleRequest struct {
	Name        string      `json:"name" binding:"required"`
	CategoryIDs []uuid.UUID `json:"category_ids" binding:"required"`
}

func loadRuleCategories(c *gin.Context, ids []uuid.UUID) ([]models.Category, bool) {
	gormDB, ok := getDB(c)
	if !ok {
		return nil, false
	}

	categories := make([]models.Category, 0, len(ids))
	for _, id := range ids {
		var category models.Category
		if err := gormDB.First(&category, "id = ?", id).Error; err != nil {
			helpers.RespondWithError(c, http.StatusNotFound, "Category not found.")
			return nil, false
		}
		categories = append(categories, category)
	}
	return categories, true
}

func CreateDiscount(c *gin.Context) {
	var req RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	categories, ok := loadRuleCategories(c, req.CategoryIDs)
	if !ok {
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	discount := models.Discount{Name: req.Name, Categories: categories}
	if err := gormDB.Create(&discount).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create discount.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Discount created successfully.",
		"discount_id": discount.ID,
	})
}

func ListDiscounts(c *gin.Context) {
	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	var discounts []models.Discount
	if err := gormDB.Preload("Categories").Order("name").Find(&discounts).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving discounts.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"discounts": discounts})
}

func CreateFee(c *gin.Context) {
	var req RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	categories, ok := loadRuleCategories(c, req.CategoryIDs)
	if !ok {
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	fee := models.Fee{Name: req.Name, Categories: categories}
	if err := gormDB.Create(&fee).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create fee.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Fee created successfully.",
		"fee_id":  fee.ID,
	})
}

func ListFees(c *gin.Context) {
	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	var fees []models.Fee
	if err := gormDB.Preload("Categories").Order("name").Find(&fees).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving fees.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"fees": fees})
}
