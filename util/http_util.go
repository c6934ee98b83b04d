// api/util/http_util.go
package util

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	logger "github.com/openparts/registry/api/logging"
	"github.com/openparts/registry/api/model"
)

func RespondWithError(c *gin.Context, code int, message string, err error) {
	logger.Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method))
	c.JSON(code, gin.H{"error": message})
}

// GetAccountFromContext returns the acting account placed in the request
// context by the identity middleware. Requests with no identity act as the
// anonymous account.
func GetAccountFromContext(c *gin.Context) model.Account {
	raw, exists := c.Get("requestingAccount")
	if !exists {
		return model.Account{}
	}
	account, ok := raw.(model.Account)
	if !ok {
		return model.Account{}
	}
	return account
}
