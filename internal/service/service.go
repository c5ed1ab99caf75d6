package service

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// db is a handle to the database.
var db *sqlx.DB

// selectUserWhereToken is a prepared statement for resolving an API token
// to a user. It runs on every authenticated request.
var selectUserWhereToken *sqlx.Stmt

// insertContact is a prepared statement for creating a contact on the database.
var insertContact *sqlx.NamedStmt

// selectContactWhereIdAndOwner is a prepared statement for selecting a contact
// with a given id that belongs to a given user.
var selectContactWhereIdAndOwner *sqlx.Stmt

// selectAddressWhereIdAndContact is a prepared statement for selecting an
// address with a given id that belongs to a given contact.
var selectAddressWhereIdAndContact *sqlx.Stmt

// CreateDatabase initializes and returns a database connection. The connection
// parameters are taken from the system's environment variables.
func CreateDatabase() *sql.DB {
	dsn := fmt.Sprintf("%s:%s@tcp(%s)/addressbook?parseTime=true",
		os.Getenv("DBUSER"), os.Getenv("DBPWD"), os.Getenv("DBHOST"))
	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatal(err)
	}
	return sqlDB
}

// SetupDatabaseWrapper initializes the sqlx database wrapper with the specified
// sql database. It then prepares all statements. The database argument can be a
// real database for production use or a mock database within unit tests.
func SetupDatabaseWrapper(sqlDB *sql.DB) {
	var err error
	db = sqlx.NewDb(sqlDB, "mysql")

	// Prepared statements offer a significant speed increase if executed many times.
	selectUserWhereToken, err = db.Preparex(`
		SELECT * FROM users WHERE token = ?
	`)
	if err != nil {
		log.Fatal(err)
	}
	insertContact, err = db.PrepareNamed(`
		INSERT INTO contacts (first_name, last_name, email, phone, username)
		VALUES (:first_name, :last_name, :email, :phone, :username)
	`)
	if err != nil {
		log.Fatal(err)
	}
	selectContactWhereIdAndOwner, err = db.Preparex(`
		SELECT * FROM contacts WHERE id = ? AND username = ?
	`)
	if err != nil {
		log.Fatal(err)
	}
	selectAddressWhereIdAndContact, err = db.Preparex(`
		SELECT * FROM addresses WHERE id = ? AND contact_id = ?
	`)
	if err != nil {
		log.Fatal(err)
	}
}

// SetupHttpRouter initializes the REST API router and registers all endpoints.
// Registration and login are reachable without a token; everything else sits
// behind the authenticate middleware.
func SetupHttpRouter() *gin.Engine {
	var router *gin.Engine
	if strings.EqualFold(os.Getenv("GIN_LOGGING"), "off") {
		fmt.Println("Turning off HTTP request logging.")
		router = gin.New()
		router.Use(gin.Recovery())
	} else {
		router = gin.Default()
	}
	setupValidatorFieldNames()

	api := router.Group("/api")
	api.POST("/users", registerUser)
	api.POST("/users/login", loginUser)

	authorized := api.Group("")
	authorized.Use(authenticate)
	authorized.GET("/users/current", getCurrentUser)
	authorized.PATCH("/users/current", updateCurrentUser)
	authorized.DELETE("/users/current", logoutUser)
	authorized.POST("/contacts", createContact)
	authorized.GET("/contacts", searchContacts)
	authorized.GET("/contacts/:id", findContactByID)
	authorized.PUT("/contacts/:id", updateContactByID)
	authorized.DELETE("/contacts/:id", deleteContactByID)
	authorized.POST("/contacts/:id/addresses", createAddress)
	authorized.GET("/contacts/:id/addresses", listAddresses)
	authorized.GET("/contacts/:id/addresses/:addressId", findAddressByID)
	authorized.PUT("/contacts/:id/addresses/:addressId", updateAddressByID)
	authorized.DELETE("/contacts/:id/addresses/:addressId", deleteAddressByID)
	return router
}

// setupValidatorFieldNames makes the binding validator report violations under
// the JSON field names that the caller actually sent, e.g. 'first_name'
// instead of 'FirstName'.
func setupValidatorFieldNames() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// normalizeOptional maps an explicitly empty optional field to absent, so that
// the database only ever stores NULL for missing values.
func normalizeOptional(value *string) *string {
	if value != nil && *value == "" {
		return nil
	}
	return value
}

// bindingErrorMessage converts a request binding error into the message for
// the error envelope. Validator violations are enumerated per field; anything
// else (broken JSON, wrong types) becomes a generic complaint.
func bindingErrorMessage(err error) string {
	var violations validator.ValidationErrors
	if errors.As(err, &violations) {
		parts := make([]string, 0, len(violations))
		for _, violation := range violations {
			parts = append(parts, fmt.Sprintf(
				"field '%s' failed on rule '%s'", violation.Field(), violation.Tag()))
		}
		return strings.Join(parts, "; ")
	}
	return "invalid request body"
}
