package service

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// createMockObjects builds a mock database handle and a mock object for defining our expected SQL
// calls.
func createMockObjects(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	return db, mock
}

// expectPreparedStatements instructs the mock object to expect that several statements are being
// prepared. The order must match SetupDatabaseWrapper.
func expectPreparedStatements(mock sqlmock.Sqlmock) {
	mock.ExpectPrepare("SELECT \\* FROM users WHERE token")
	mock.ExpectPrepare("INSERT INTO contacts")
	mock.ExpectPrepare("SELECT \\* FROM contacts WHERE id = \\? AND username = \\?")
	mock.ExpectPrepare("SELECT \\* FROM addresses WHERE id = \\? AND contact_id = \\?")
}

// expectTokenLookup instructs the mock object to expect the auth middleware's token resolution
// and to answer it with one matching user.
func expectTokenLookup(mock sqlmock.Sqlmock, token string, username string, name string) {
	rows := mock.NewRows([]string{"username", "password", "name", "token"}).
		AddRow(username, "irrelevant-hash", name, token)
	mock.ExpectQuery("SELECT \\* FROM users WHERE token").
		WithArgs(token).
		WillReturnRows(rows)
}

// expectContactLookup instructs the mock object to expect the scoped existence check for a
// contact and to answer it with one matching row.
func expectContactLookup(mock sqlmock.Sqlmock, id int, username string) {
	rows := mock.NewRows([]string{"id", "first_name", "last_name", "email", "phone", "username"}).
		AddRow(id, "Erika", "Mustermann", "erika@example.com", "0815", username)
	mock.ExpectQuery("SELECT \\* FROM contacts WHERE id = \\? AND username = \\?").
		WithArgs(strconv.Itoa(id), username).
		WillReturnRows(rows)
}

// mustHashPassword returns the bcrypt hash of the given plaintext, as stored in the users table.
func mustHashPassword(t *testing.T, plaintext string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("could not hash password: %s", err)
	}
	return string(hash)
}

// initializeService sets up the service with the mock database and returns a handle to the gin
// engine against which requests can be executed.
func initializeService(db *sql.DB) *gin.Engine {
	SetupDatabaseWrapper(db)
	gin.SetMode(gin.ReleaseMode)
	return SetupHttpRouter()
}

// runTest executes the HTTP request with the specified arguments and returns the response. An
// empty token leaves the X-API-TOKEN header unset.
func runTest(db *sql.DB, method string, url string, token string, body *strings.Reader) *httptest.ResponseRecorder {
	router := initializeService(db)
	recorder := httptest.NewRecorder()
	if body == nil {
		body = strings.NewReader("")
	}
	request, _ := http.NewRequest(method, url, body)
	if token != "" {
		request.Header.Set("X-API-TOKEN", token)
	}
	router.ServeHTTP(recorder, request)
	return recorder
}
