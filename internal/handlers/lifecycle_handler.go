package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwalcott/stagecrew/internal/helpers"
	"github.com/mwalcott/stagecrew/internal/lifecycle"
	"github.com/mwalcott/stagecrew/internal/middleware"
	"github.com/mwalcott/stagecrew/internal/models"
	"github.com/mwalcott/stagecrew/internal/notify"
)

func lifecycleService(c *gin.Context, gormDB *gorm.DB) *lifecycle.Service {
	logger := middleware.GetLogger(c)
	return lifecycle.NewService(gormDB, lifecycle.RoleAuthorizer{}, logger, notify.NewAuditLog(logger))
}

func transitionHandler(message string, run func(svc *lifecycle.Service, ctx context.Context, eventID uuid.UUID, actor *models.User) (*models.Event, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		gormDB, ok := getDB(c)
		if !ok {
			return
		}

		actor, ok := currentUser(c, gormDB)
		if !ok {
			return
		}

		event, err := run(lifecycleService(c, gormDB), c.Request.Context(), eventID, actor)
		if err != nil {
			helpers.RespondWithFault(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":  message,
			"event_id": event.ID,
		})
	}
}

func ApproveEvent() gin.HandlerFunc {
	return transitionHandler("Event approved.", func(svc *lifecycle.Service, ctx context.Context, eventID uuid.UUID, actor *models.User) (*models.Event, error) {
		return svc.Approve(ctx, eventID, actor)
	})
}

type DenyRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func DenyEvent(c *gin.Context) {
	eventID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req DenyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. A reason is required.")
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	actor, ok := currentUser(c, gormDB)
	if !ok {
		return
	}

	event, err := lifecycleService(c, gormDB).Deny(c.Request.Context(), eventID, actor, req.Reason)
	if err != nil {
		helpers.RespondWithFault(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Event denied.",
		"event_id": event.ID,
	})
}

func ReviewEvent() gin.HandlerFunc {
	return transitionHandler("Event reviewed.", func(svc *lifecycle.Service, ctx context.Context, eventID uuid.UUID, actor *models.User) (*models.Event, error) {
		return svc.Review(ctx, eventID, actor)
	})
}

func CloseEvent() gin.HandlerFunc {
	return transitionHandler("Event closed.", func(svc *lifecycle.Service, ctx context.Context, eventID uuid.UUID, actor *models.User) (*models.Event, error) {
		return svc.Close(ctx, eventID, actor)
	})
}

func ReopenEvent() gin.HandlerFunc {
	return transitionHandler("Event reopened.", func(svc *lifecycle.Service, ctx context.Context, eventID uuid.UUID, actor *models.User) (*models.Event, error) {
		return svc.Reopen(ctx, eventID, actor)
	})
}

func CancelEvent() gin.HandlerFunc {
	return transitionHandler("Event cancelled.", func(svc *lifecycle.Service, ctx context.Context, eventID uuid.UUID, actor *models.User) (*models.Event, error) {
		return svc.Cancel(ctx, eventID, actor)
	})
}

func GetEventStatus(c *gin.Context) {
	eventID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	status, err := lifecycleService(c, gormDB).Status(c.Request.Context(), eventID)
	if err != nil {
		helpers.RespondWithFault(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"event_id": eventID,
		"status":   status,
	})
}
