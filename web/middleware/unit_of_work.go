package middleware

import (
	"github.com/mhsanaei/blogpanel/database"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const unitOfWorkKey = "uow"

// UnitOfWork gives every request its own unit of work and drops whatever
// the handler staged without flushing.
func UnitOfWork(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uow := database.NewUnitOfWork(db)
		c.Set(unitOfWorkKey, uow)
		defer uow.Discard()
		c.Next()
	}
}

// GetUnitOfWork returns the request's unit of work.
func GetUnitOfWork(c *gin.Context) *database.UnitOfWork {
	return c.MustGet(unitOfWorkKey).(*database.UnitOfWork)
}
