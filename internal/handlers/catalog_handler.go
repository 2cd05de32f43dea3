package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mwalcott/stagecrew/internal/helpers"
	"github.com/mwalcott/stagecrew/internal/models"
)

type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

func CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	var category models.Category
	if err := gormDB.Where("name = ?", req.Name).FirstOrCreate(&category, models.Category{Name: req.Name}).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create category.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Category created successfully.",
		"category_id": category.ID,
	})
}

func ListCategories(c *gin.Context) {
	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	var categories []models.Category
	if err := gormDB.Order("name").Find(&categories).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving categories.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

type ServiceRequest struct {
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description"`
	BaseCost    string    `json:"base_cost" binding:"required"`
	CategoryID  uuid.UUID `json:"category_id" binding:"required"`
}

func CreateService(c *gin.Context) {
	var req ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	baseCost, err := helpers.StringToDecimal(req.BaseCost)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid base cost.")
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	var category models.Category
	if err := gormDB.First(&category, "id = ?", req.CategoryID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Category not found.")
		return
	}

	service := models.Service{
		Name:        req.Name,
		Description: req.Description,
		BaseCost:    baseCost,
		CategoryID:  category.ID,
	}
	if err := gormDB.Create(&service).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create service.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Service created successfully.",
		"service_id": service.ID,
	})
}

func ListServices(c *gin.Context) {
	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	var services []models.Service
	if err := gormDB.Preload("Category").Order("name").Find(&services).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving services.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"services": services})
}

type ExtraRequest struct {
	Name       string    `json:"name" binding:"required"`
	Cost       string    `json:"cost" binding:"required"`
	CategoryID uuid.UUID `json:"category_id" binding:"required"`
}

func CreateExtra(c *gin.Context) {
	var req ExtraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	cost, err := helpers.StringToDecimal(req.Cost)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid cost.")
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	var category models.Category
	if err := gormDB.First(&category, "id = ?", req.CategoryID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Category not found.")
		return
	}

	extra := models.Extra{
		Name:       req.Name,
		Cost:       cost,
		CategoryID: category.ID,
	}
	if err := gormDB.Create(&extra).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create extra.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Extra created successfully.",
		"extra_id": extra.ID,
	})
}

func ListExtras(c *gin.Context) {
	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	var extras []models.Extra
	if err := gormDB.Preload("Category").Order("name").Find(&extras).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving extras.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"extras": extras})
}

// MarkExtraDisappeared flags an extra as gone from the catalog. Events still
// referencing it freeze their extras until the stale rows are removed.
func MarkExtraDisappeared(c *gin.Context) {
	extraID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	result := gormDB.Model(&models.Extra{}).Where("id = ?", extraID).Update("disappeared", true)
	if result.Error != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update extra.")
		return
	}
	if result.RowsAffected == 0 {
		helpers.RespondWithError(c, http.StatusNotFound, "Extra not found.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Extra marked as disappeared."})
}
