package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mwalcott/stagecrew/internal/attendance"
	"github.com/mwalcott/stagecrew/internal/helpers"
	"github.com/mwalcott/stagecrew/internal/models"
)

type CheckInRequest struct {
	EventID uuid.UUID `json:"event_id" binding:"required"`
}

func CheckIn(c *gin.Context) {
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. An event ID is required.")
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

	record, err := attendance.NewTracker(gormDB).CheckIn(c.Request.Context(), user.ID, req.EventID)
	if err != nil {
		helpers.RespondWithFault(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Checked in.",
		"record_id":  record.ID,
		"checkin_at": record.CheckinAt,
	})
}

type CheckOutRequest struct {
	CheckoutAt    time.Time         `json:"checkout_at" binding:"required"`
	CheckinAt     *time.Time        `json:"checkin_at"`
	CategoryHours map[string]string `json:"category_hours"`
}

func CheckOut(c *gin.Context) {
	var req CheckOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. A checkout time is required.")
		return
	}

	categoryHours := make(map[uuid.UUID]decimal.Decimal, len(req.CategoryHours))
	for key, value := range req.CategoryHours {
		categoryID, err := uuid.Parse(key)
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid category ID in hours.")
			return
		}
		hours, err := decimal.NewFromString(value)
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid hour value.")
			return
		}
		categoryHours[categoryID] = hours
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	user, ok := currentUser(c, gormDB)
	if !ok {
		return
	}

	result, err := attendance.NewTracker(gormDB).CheckOut(c.Request.Context(), user.ID, attendance.CheckoutRequest{
		CheckoutAt:    req.CheckoutAt,
		CheckinAt:     req.CheckinAt,
		CategoryHours: categoryHours,
	})
	if err != nil {
		helpers.RespondWithFault(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Checked out.",
		"total_hours": result.TotalHours,
		"checkout_at": result.Record.CheckoutAt,
	})
}

func ListEventAttendance(c *gin.Context) {
	eventID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	var records []models.CrewAttendanceRecord
	err := gormDB.Preload("User").
		Where("event_id = ?", eventID).
		Order("checkin_at").
		Find(&records).Error
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving attendance records.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}

func MyHours(c *gin.Context) {
	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	user, ok := currentUser(c, gormDB)
	if !ok {
		return
	}

	var hours []models.Hours
	err := gormDB.Preload("Category").
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&hours).Error
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving hours.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"hours": hours})
}

type CrewChiefRequest struct {
	UserID     uuid.UUID `json:"user_id" binding:"required"`
	CategoryID uuid.UUID `json:"category_id" binding:"required"`
	SetupStart time.Time `json:"setup_start" binding:"required"`
}

func AssignCrewChief(c *gin.Context) {
	eventID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req CrewChiefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	var event models.Event
	if err := gormDB.First(&event, "id = ?", eventID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		return
	}
	if event.Closed {
		helpers.RespondWithError(c, http.StatusConflict, "Event is closed.")
		return
	}

	assignment := models.CrewChiefAssignment{
		EventID:    eventID,
		UserID:     req.UserID,
		CategoryID: req.CategoryID,
		SetupStart: req.SetupStart,
	}
	if err := gormDB.Create(&assignment).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to assign crew chief.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":       "Crew chief assigned.",
		"assignment_id": assignment.ID,
	})
}
