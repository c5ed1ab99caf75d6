package service

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gitlab.com/fadel.arrasyid/address-book-service/internal/model"
	api "gitlab.com/fadel.arrasyid/address-book-service/pkg/model"
	"golang.org/x/crypto/bcrypt"
)

// registerUserRequest is the request body for creating an account.
type registerUserRequest struct {
	Username string `json:"username" binding:"required,max=100"`
	Password string `json:"password" binding:"required,max=100"`
	Name     string `json:"name"     binding:"required,max=100"`
}

// loginUserRequest is the request body for logging in.
type loginUserRequest struct {
	Username string `json:"username" binding:"required,max=100"`
	Password string `json:"password" binding:"required,max=100"`
}

// updateUserRequest is the request body for a partial self-update. Only the
// fields present in the JSON are applied; absent fields stay untouched.
type updateUserRequest struct {
	Name     *string `json:"name"     binding:"omitempty,max=100"`
	Password *string `json:"password" binding:"omitempty,max=100"`
}

// toUserResponse strips an account down to its public fields.
func toUserResponse(user model.User) api.User {
	return api.User{
		Username: user.Username,
		Name:     user.Name,
	}
}

// registerUser creates a new account. The username must not be taken yet, and
// the password is stored as a bcrypt hash. The response contains neither the
// password nor a token; a token is only handed out by login.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/users --request "POST" --include --header "Content-Type: application/json" --data '{"username": "erika", "password": "secret", "name": "Erika Mustermann"}'
func registerUser(c *gin.Context) {
	var request registerUserRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": bindingErrorMessage(err)})
		return
	}

	var total int
	if err := db.Get(&total, "SELECT COUNT(*) FROM users WHERE username = ?", request.Username); err != nil {
		log.Panicln(err)
	}
	if total != 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": "username already exists"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Panicln(err)
	}
	db.MustExec("INSERT INTO users (username, password, name) VALUES (?, ?, ?)",
		request.Username, string(hash), request.Name)

	c.IndentedJSON(http.StatusOK, gin.H{"data": api.User{
		Username: request.Username,
		Name:     request.Name,
	}})
}

// loginUser verifies the credentials and issues a fresh token. The stored
// token is overwritten wholesale, so at most one session per account is
// active. Unknown usernames and wrong passwords are deliberately answered
// with the same message so that callers cannot probe for accounts.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/users/login --request "POST" --include --header "Content-Type: application/json" --data '{"username": "erika", "password": "secret"}'
func loginUser(c *gin.Context) {
	var request loginUserRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": bindingErrorMessage(err)})
		return
	}

	var users []model.User
	if err := db.Select(&users, "SELECT * FROM users WHERE username = ?", request.Username); err != nil {
		log.Panicln(err)
	}
	if len(users) == 0 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"errors": "username or password is wrong"})
		return
	}
	user := users[0]
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(request.Password)) != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"errors": "username or password is wrong"})
		return
	}

	token := uuid.NewString()
	db.MustExec("UPDATE users SET token = ? WHERE username = ?", token, user.Username)

	c.IndentedJSON(http.StatusOK, gin.H{"data": api.User{
		Username: user.Username,
		Name:     user.Name,
		Token:    token,
	}})
}

// getCurrentUser responds with the public fields of the authenticated user.
// The auth middleware already fetched the record, so no further database
// call is needed.
func getCurrentUser(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, gin.H{"data": toUserResponse(currentUser(c))})
}

// updateCurrentUser applies a partial update to the authenticated user. Name
// and password are both optional; a new password is re-hashed before storage.
// An empty request body is a no-op that answers with the unchanged account.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/users/current --request "PATCH" --include --header "Content-Type: application/json" --header "X-API-TOKEN: ..." --data '{"name": "Erika M."}'
func updateCurrentUser(c *gin.Context) {
	user := currentUser(c)

	var request updateUserRequest
	if err := c.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": bindingErrorMessage(err)})
		return
	}

	var empty []string
	if request.Name != nil && *request.Name == "" {
		empty = append(empty, "name")
	}
	if request.Password != nil && *request.Password == "" {
		empty = append(empty, "password")
	}
	if len(empty) > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"errors": fmt.Sprintf("field '%s' must not be empty", strings.Join(empty, "', '")),
		})
		return
	}

	var args []interface{}
	sql := "UPDATE users SET "
	if request.Name != nil {
		user.Name = *request.Name
		args = append(args, request.Name)
		sql += "name=?, "
	}
	if request.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*request.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Panicln(err)
		}
		args = append(args, string(hash))
		sql += "password=?, "
	}

	// Nothing submitted means nothing to persist.
	if len(args) == 0 {
		c.IndentedJSON(http.StatusOK, gin.H{"data": toUserResponse(user)})
		return
	}

	sql = sql[:len(sql)-2]
	sql += " WHERE username=?"
	args = append(args, user.Username)
	db.MustExec(sql, args...)

	c.IndentedJSON(http.StatusOK, gin.H{"data": toUserResponse(user)})
}

// logoutUser clears the stored token of the authenticated user, so that the
// token from the request header stops working immediately.
func logoutUser(c *gin.Context) {
	db.MustExec("UPDATE users SET token = NULL WHERE username = ?", currentUser(c).Username)
	c.IndentedJSON(http.StatusOK, gin.H{"data": "OK"})
}
