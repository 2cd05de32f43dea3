package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mwalcott/stagecrew/internal/billing"
	"github.com/mwalcott/stagecrew/internal/helpers"
	"github.com/mwalcott/stagecrew/internal/models"
)

type BillingRequest struct {
	EventID    uuid.UUID `json:"event_id" binding:"required"`
	DateBilled time.Time `json:"date_billed" binding:"required"`
	Worktag    string    `json:"worktag"`
}

func CreateBilling(c *gin.Context) {
	var req BillingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	record, err := billing.NewService(gormDB).CreateBilling(c.Request.Context(), req.EventID, req.DateBilled, req.Worktag)
	if err != nil {
		helpers.RespondWithFault(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Billing created successfully.",
		"billing_id": record.ID,
		"amount":     record.Amount,
	})
}

type MultiBillingRequest struct {
	EventIDs   []uuid.UUID `json:"event_ids" binding:"required"`
	DateBilled time.Time   `json:"date_billed" binding:"required"`
	Worktag    string      `json:"worktag"`
}

func CreateMultiBilling(c *gin.Context) {
	var req MultiBillingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	record, err := billing.NewService(gormDB).CreateMultiBilling(c.Request.Context(), req.EventIDs, req.DateBilled, req.Worktag)
	if err != nil {
		helpers.RespondWithFault(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":         "Multibilling created successfully.",
		"multibilling_id": record.ID,
		"amount":          record.Amount,
	})
}

type MarkPaidRequest struct {
	DatePaid time.Time `json:"date_paid" binding:"required"`
}

func MarkBillingPaid(c *gin.Context) {
	billingID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. A paid date is required.")
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	record, changed, err := billing.NewService(gormDB).MarkPaid(c.Request.Context(), billingID, req.DatePaid)
	if err != nil {
		helpers.RespondWithFault(c, err)
		return
	}

	message := "Billing marked as paid."
	if !changed {
		message = "Billing was already paid; nothing changed."
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   message,
		"date_paid": record.DatePaid,
	})
}

func MarkMultiBillingPaid(c *gin.Context) {
	multiID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. A paid date is required.")
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	record, changed, err := billing.NewService(gormDB).MarkMultiPaid(c.Request.Context(), multiID, req.DatePaid)
	if err != nil {
		helpers.RespondWithFault(c, err)
		return
	}

	message := "Multibilling marked as paid."
	if !changed {
		message = "Multibilling was already paid; nothing changed."
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   message,
		"date_paid": record.DatePaid,
	})
}

func DeleteBilling(c *gin.Context) {
	billingID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	if err := billing.NewService(gormDB).Delete(c.Request.Context(), billingID); err != nil {
		helpers.RespondWithFault(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Billing deleted successfully."})
}

func DeleteMultiBilling(c *gin.Context) {
	multiID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	if err := billing.NewService(gormDB).DeleteMulti(c.Request.Context(), multiID); err != nil {
		helpers.RespondWithFault(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Multibilling deleted successfully."})
}

func ListEventBillings(c *gin.Context) {
	eventID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	var billings []models.Billing
	if err := gormDB.Where("event_id = ?", eventID).Order("date_billed DESC").Find(&billings).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving billings.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"billings": billings})
}
