package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwalcott/stagecrew/internal/helpers"
	"github.com/mwalcott/stagecrew/internal/models"
)

type OrganizationRequest struct {
	Name      string     `json:"name" binding:"required"`
	ContactID *uuid.UUID `json:"contact_id"`
}

func CreateOrganization(c *gin.Context) {
	var req OrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	org := models.Organization{
		Name:      req.Name,
		ContactID: req.ContactID,
	}
	if err := gormDB.Create(&org).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create organization.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":         "Organization created successfully.",
		"organization_id": org.ID,
	})
}

func ListOrganizations(c *gin.Context) {
	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	var orgs []models.Organization
	if err := gormDB.Preload("Contact").Order("name").Find(&orgs).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving organizations.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"organizations": orgs})
}

func GetOrganization(c *gin.Context) {
	orgID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	var org models.Organization
	if err := gormDB.Preload("Members").Preload("Contact").First(&org, "id = ?", orgID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Organization not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving organization.")
		return
	}

	c.JSON(http.StatusOK, org)
}

type AddMemberRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

func AddOrganizationMember(c *gin.Context) {
	orgID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	var org models.Organization
	if err := gormDB.First(&org, "id = ?", orgID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Organization not found.")
		return
	}

	var user models.User
	if err := gormDB.First(&user, "id = ?", req.UserID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "User not found.")
		return
	}

	if err := gormDB.Model(&org).Association("Members").Append(&user); err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to add member.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member added successfully."})
}
