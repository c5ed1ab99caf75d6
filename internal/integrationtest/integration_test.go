package integrationtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gitlab.com/fadel.arrasyid/address-book-service/internal/service"
)

// setupRouter connects to the real database configured through the environment and returns the
// ready router. Tests are skipped when no database host is configured, so that the suite stays
// runnable on machines without a local MySQL.
func setupRouter(t *testing.T) *gin.Engine {
	if os.Getenv("DBHOST") == "" {
		t.Skip("DBHOST not set, skipping integration test")
	}
	sqlDB := service.CreateDatabase()
	service.SetupDatabaseWrapper(sqlDB)
	gin.SetMode(gin.ReleaseMode)
	return service.SetupHttpRouter()
}

// perform executes one HTTP request against the router and decodes the JSON response body into
// a generic map.
func perform(router *gin.Engine, method string, url string, token string, body string) (int, map[string]interface{}) {
	recorder := httptest.NewRecorder()
	request, _ := http.NewRequest(method, url, strings.NewReader(body))
	if token != "" {
		request.Header.Set("X-API-TOKEN", token)
	}
	router.ServeHTTP(recorder, request)
	var decoded map[string]interface{}
	json.Unmarshal(recorder.Body.Bytes(), &decoded)
	return recorder.Code, decoded
}

// registerAndLogin creates a fresh user with a unique name and returns the username and a valid
// token.
func registerAndLogin(t *testing.T, router *gin.Engine) (username string, token string) {
	username = fmt.Sprintf("it%d", time.Now().UnixNano())
	code, _ := perform(router, "POST", "/api/users", "", fmt.Sprintf(`
		{"username": %q, "password": "rahasia", "name": "Integration Tester"}`, username))
	assert.Equal(t, http.StatusOK, code)

	code, body := perform(router, "POST", "/api/users/login", "", fmt.Sprintf(`
		{"username": %q, "password": "rahasia"}`, username))
	assert.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]interface{})
	return username, data["token"].(string)
}

// TestUserHappyPath registers a user, logs in twice and verifies the token lifecycle including
// the self-update and logout.
func TestUserHappyPath(t *testing.T) {
	router := setupRouter(t)
	username, token := registerAndLogin(t, router)

	// the current user is resolvable through the token
	code, body := perform(router, "GET", "/api/users/current", token, "")
	assert.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, username, data["username"])
	assert.Nil(t, data["password"])
	assert.Nil(t, data["token"])

	// a wrong token is rejected
	code, _ = perform(router, "GET", "/api/users/current", "wrong-token", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	// a second login issues a fresh token and invalidates the old one
	code, body = perform(router, "POST", "/api/users/login", "", fmt.Sprintf(`
		{"username": %q, "password": "rahasia"}`, username))
	assert.Equal(t, http.StatusOK, code)
	freshToken := body["data"].(map[string]interface{})["token"].(string)
	assert.NotEqual(t, token, freshToken)
	code, _ = perform(router, "GET", "/api/users/current", token, "")
	assert.Equal(t, http.StatusUnauthorized, code)

	// the name can be changed without touching the password
	code, body = perform(router, "PATCH", "/api/users/current", freshToken, `{"name": "Renamed"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Renamed", body["data"].(map[string]interface{})["name"])

	// an empty update body changes nothing
	code, body = perform(router, "PATCH", "/api/users/current", freshToken, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Renamed", body["data"].(map[string]interface{})["name"])

	// logout revokes the token
	code, _ = perform(router, "DELETE", "/api/users/current", freshToken, "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = perform(router, "GET", "/api/users/current", freshToken, "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

// TestContactAndAddressHappyPath walks a contact with one address through its full life: create,
// find, search, update, and delete, including the cascade from contact to address.
func TestContactAndAddressHappyPath(t *testing.T) {
	router := setupRouter(t)
	_, token := registerAndLogin(t, router)

	// create a contact
	code, body := perform(router, "POST", "/api/contacts", token, `
		{"first_name": "Erika", "last_name": "Mustermann", "email": "erika@example.com", "phone": "0815"}`)
	assert.Equal(t, http.StatusOK, code)
	contactId := fmt.Sprintf("%.0f", body["data"].(map[string]interface{})["id"])

	// the contact is findable directly and through the search
	code, body = perform(router, "GET", "/api/contacts/"+contactId, token, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Erika", body["data"].(map[string]interface{})["first_name"])
	code, body = perform(router, "GET", "/api/contacts?name=must", token, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, len(body["data"].([]interface{})))
	paging := body["paging"].(map[string]interface{})
	assert.Equal(t, 10.0, paging["size"])
	assert.Equal(t, 1.0, paging["total_page"])
	assert.Equal(t, 1.0, paging["current_page"])

	// a filter that matches nothing still reports the owner's total
	code, body = perform(router, "GET", "/api/contacts?phone=does-not-exist", token, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, len(body["data"].([]interface{})))
	assert.Equal(t, 1.0, body["paging"].(map[string]interface{})["total_page"])

	// replace the contact
	code, body = perform(router, "PUT", "/api/contacts/"+contactId, token, `
		{"first_name": "Rudi", "last_name": "Völler", "phone": "4711"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Rudi", body["data"].(map[string]interface{})["first_name"])

	// create an address under the contact
	code, body = perform(router, "POST", "/api/contacts/"+contactId+"/addresses", token, `
		{"street": "Hlavni 12", "city": "Praha", "country": "CZ", "postal_code": "11000"}`)
	assert.Equal(t, http.StatusOK, code)
	addressId := fmt.Sprintf("%.0f", body["data"].(map[string]interface{})["id"])

	// the address is listable and findable
	code, body = perform(router, "GET", "/api/contacts/"+contactId+"/addresses", token, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, len(body["data"].([]interface{})))
	code, body = perform(router, "GET", "/api/contacts/"+contactId+"/addresses/"+addressId, token, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Praha", body["data"].(map[string]interface{})["city"])

	// deleting the contact cascades to its addresses
	code, body = perform(router, "DELETE", "/api/contacts/"+contactId, token, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK", body["data"])
	code, _ = perform(router, "GET", "/api/contacts/"+contactId+"/addresses/"+addressId, token, "")
	assert.Equal(t, http.StatusNotFound, code)
}

// TestOwnershipIsolation verifies that one user can never see or modify another user's contacts,
// and that the failures look exactly like missing rows.
func TestOwnershipIsolation(t *testing.T) {
	router := setupRouter(t)
	_, tokenA := registerAndLogin(t, router)
	_, tokenB := registerAndLogin(t, router)

	code, body := perform(router, "POST", "/api/contacts", tokenA, `{"first_name": "Private"}`)
	assert.Equal(t, http.StatusOK, code)
	contactId := fmt.Sprintf("%.0f", body["data"].(map[string]interface{})["id"])

	code, body = perform(router, "GET", "/api/contacts/"+contactId, tokenB, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "contact is not found", body["errors"])
	code, _ = perform(router, "PUT", "/api/contacts/"+contactId, tokenB, `{"first_name": "Taken"}`)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = perform(router, "DELETE", "/api/contacts/"+contactId, tokenB, "")
	assert.Equal(t, http.StatusNotFound, code)

	// the owner still sees the untouched contact
	code, body = perform(router, "GET", "/api/contacts/"+contactId, tokenA, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Private", body["data"].(map[string]interface{})["first_name"])
}
