package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mhersche/docgate/pkg/errors"
	"github.com/mhersche/docgate/pkg/response"
)

// Health reports service liveness and database reachability.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "ok"
		if db != nil {
			sqlDB, err := db.DB()
			if err != nil || sqlDB.PingContext(requestContext(c)) != nil {
				response.Error(c, errors.ErrServiceUnavailable)
				return
			}
		}
		response.Success(c, http.StatusOK, gin.H{"status": status})
	}
}
