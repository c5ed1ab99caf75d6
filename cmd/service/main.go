package main

import (
	"fmt"
	"os"
	"strconv"

	"gitlab.com/fadel.arrasyid/address-book-service/internal/service"
)

// Usage example on the command line:
// > PORT=8080 DBUSER=fadel DBPWD=rahasia DBHOST=localhost GIN_MODE=release GIN_LOGGING=OFF go run main.go
func main() {
	sqlDB := service.CreateDatabase()
	service.SetupDatabaseWrapper(sqlDB)
	router := service.SetupHttpRouter()
	_, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		fmt.Println("could not parse PORT env variable", err)
		panic(err)
	}
	router.Run(":" + os.Getenv("PORT"))
}
