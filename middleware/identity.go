// api/middleware/identity.go

package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openparts/registry/api/dao"
	registry_errors "github.com/openparts/registry/api/errors"
	logger "github.com/openparts/registry/api/logging"
	"github.com/openparts/registry/api/model"
)

// Identity resolves the acting account from the X-User-Email header set by
// the authenticating proxy in front of this service. Requests without the
// header proceed as the anonymous account; the permission engine decides
// what anonymous can see.
func Identity(accountDAO dao.IAccountDAO) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetHeader("X-User-Email")
		if email == "" {
			c.Set("requestingAccount", model.Account{})
			c.Next()
			return
		}

		account, err := accountDAO.GetAccount(c, email)
		if err == registry_errors.ErrAccountNotFound {
			// First contact; the upstream proxy vouched for the email.
			account = &model.Account{Email: email}
		} else if err != nil {
			logger.Error("Failed to resolve account", zap.Error(err), zap.String("email", email))
			account = &model.Account{Email: email}
		}

		c.Set("requestingAccount", *account)
		c.Set("requestingUserEmail", account.Email)
		c.Next()
	}
}
