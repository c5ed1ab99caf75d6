package service

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gitlab.com/fadel.arrasyid/address-book-service/internal/model"
)

// tokenHeader is the request header that carries the API token.
const tokenHeader = "X-API-TOKEN"

// contextUserKey is the gin context key under which the authenticated user
// is stored for the remainder of the request.
const contextUserKey = "currentUser"

// authenticate resolves the X-API-TOKEN header to a user and binds that user
// to the request context. Requests without a header or without a matching
// user are answered with 401 and never reach the handler.
//
// Tokens are opaque strings compared verbatim against the users table. They
// do not expire; a new login replaces the previous token.
func authenticate(c *gin.Context) {
	token := c.GetHeader(tokenHeader)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"errors": "unauthorized"})
		return
	}
	var users []model.User
	if err := selectUserWhereToken.Select(&users, token); err != nil {
		log.Panicln(err)
	}
	if len(users) == 0 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"errors": "unauthorized"})
		return
	}
	c.Set(contextUserKey, users[0])
	c.Next()
}

// currentUser returns the user that the authenticate middleware bound to the
// request context. It must only be called from handlers behind that
// middleware.
func currentUser(c *gin.Context) model.User {
	return c.MustGet(contextUserKey).(model.User)
}
