package service

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gitlab.com/fadel.arrasyid/address-book-service/internal/model"
	api "gitlab.com/fadel.arrasyid/address-book-service/pkg/model"
)

// defaultPageSize is the number of contacts per search result page if the
// caller does not specify a size.
const defaultPageSize = 10

// maxPageSize is the largest allowed search result page.
const maxPageSize = 100

// contactRequest is the request body for creating or replacing a contact.
// Only the first name is mandatory.
type contactRequest struct {
	FirstName string  `json:"first_name" binding:"required,max=100"`
	LastName  *string `json:"last_name"  binding:"omitempty,max=100"`
	Email     *string `json:"email"      binding:"omitempty,email,max=100"`
	Phone     *string `json:"phone"      binding:"omitempty,max=20"`
}

// toContactResponse strips a contact down to its public fields, dropping the
// owner column.
func toContactResponse(contact model.Contact) api.Contact {
	return api.Contact{
		Id:        contact.Id,
		FirstName: contact.FirstName,
		LastName:  contact.LastName,
		Email:     contact.Email,
		Phone:     contact.Phone,
	}
}

// findContactWhereIdAndOwner fetches the contact with the given id that
// belongs to the given user. A missing row and a row owned by somebody else
// are indistinguishable for the caller, both come back as not found.
func findContactWhereIdAndOwner(id string, username string) (model.Contact, bool) {
	var contacts []model.Contact
	if err := selectContactWhereIdAndOwner.Select(&contacts, id, username); err != nil {
		log.Panicln(err)
	}
	if len(contacts) == 0 {
		return model.Contact{}, false
	}
	return contacts[0], true
}

// createContact inserts the contact specified in the request's JSON into the
// database, owned by the authenticated user. It responds with the full
// contact data including the newly assigned id.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts --request "POST" --include --header "Content-Type: application/json" --header "X-API-TOKEN: ..." --data '{"first_name": "Erika", "last_name": "Mustermann", "email": "erika@example.com", "phone": "0815"}'
func createContact(c *gin.Context) {
	var request contactRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": bindingErrorMessage(err)})
		return
	}

	contact := model.Contact{
		FirstName: request.FirstName,
		LastName:  normalizeOptional(request.LastName),
		Email:     normalizeOptional(request.Email),
		Phone:     normalizeOptional(request.Phone),
		Username:  currentUser(c).Username,
	}
	result, err := insertContact.Exec(&contact)
	if err != nil {
		log.Panicln(err)
	}
	contact.Id, err = result.LastInsertId()
	if err != nil {
		log.Panicln(err)
	}
	c.IndentedJSON(http.StatusOK, gin.H{"data": toContactResponse(contact)})
}

// findContactByID locates the contact whose ID value matches the id parameter
// of the request URL and that belongs to the authenticated user, then returns
// that contact as a response.
//
// Example REST API call:
//
//	> curl --header "X-API-TOKEN: ..." http://localhost:8080/api/contacts/56
func findContactByID(c *gin.Context) {
	id := c.Param("id")
	if _, err := strconv.Atoi(id); err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"errors": "contact is not found"})
		return
	}

	contact, found := findContactWhereIdAndOwner(id, currentUser(c).Username)
	if !found {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"errors": "contact is not found"})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"data": toContactResponse(contact)})
}

// updateContactByID replaces the contact whose ID value matches the id
// parameter of the request URL with the values from the JSON, provided the
// contact belongs to the authenticated user. The update statement repeats
// the ownership filter so that a concurrent delete surfaces as not found
// instead of resurrecting the row.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts/56 --request "PUT" --include --header "Content-Type: application/json" --header "X-API-TOKEN: ..." --data '{"first_name": "Rudi", "phone": "81970"}'
func updateContactByID(c *gin.Context) {
	id := c.Param("id")
	idAsInt, err := strconv.Atoi(id)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"errors": "contact is not found"})
		return
	}

	var request contactRequest
	if errBind := c.ShouldBindJSON(&request); errBind != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": bindingErrorMessage(errBind)})
		return
	}

	username := currentUser(c).Username
	if _, found := findContactWhereIdAndOwner(id, username); !found {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"errors": "contact is not found"})
		return
	}

	contact := model.Contact{
		Id:        int64(idAsInt),
		FirstName: request.FirstName,
		LastName:  normalizeOptional(request.LastName),
		Email:     normalizeOptional(request.Email),
		Phone:     normalizeOptional(request.Phone),
	}

	// MySQL reports zero affected rows both for a vanished row and for an
	// update that changed nothing, so the result is not inspected here. The
	// ownership filter on the statement itself is what matters.
	db.MustExec(`
		UPDATE contacts SET first_name=?, last_name=?, email=?, phone=?
		WHERE id=? AND username=?`,
		contact.FirstName, contact.LastName, contact.Email, contact.Phone, id, username)
	c.IndentedJSON(http.StatusOK, gin.H{"data": toContactResponse(contact)})
}

// deleteContactByID deletes the contact whose ID value matches the id
// parameter of the request URL from the database, provided it belongs to the
// authenticated user. Addresses of the contact are removed by the schema's
// cascade rule.
//
// Example REST API call:
//
//	> curl --header "X-API-TOKEN: ..." http://localhost:8080/api/contacts/56 --request "DELETE"
func deleteContactByID(c *gin.Context) {
	id := c.Param("id")
	if _, err := strconv.Atoi(id); err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"errors": "contact is not found"})
		return
	}

	username := currentUser(c).Username
	if _, found := findContactWhereIdAndOwner(id, username); !found {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"errors": "contact is not found"})
		return
	}

	result := db.MustExec("DELETE FROM contacts WHERE id=? AND username=?", id, username)
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Panicln(err)
	}
	if rowsAffected == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"errors": "contact is not found"})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"data": "OK"})
}

// parsePageAndSize inspects the URL parameters and determines the requested
// result page and page size, applying the documented defaults.
func parsePageAndSize(c *gin.Context) (page int, size int, success bool) {
	page = 1
	if raw := c.Query("page"); raw != "" {
		asInt, err := strconv.Atoi(raw)
		if err != nil || asInt < 1 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": "invalid page parameter"})
			return 0, 0, false
		}
		page = asInt
	}
	size = defaultPageSize
	if raw := c.Query("size"); raw != "" {
		asInt, err := strconv.Atoi(raw)
		if err != nil || asInt < 1 || asInt > maxPageSize {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": "invalid size parameter"})
			return 0, 0, false
		}
		size = asInt
	}
	return page, size, true
}

// searchContacts responds with one page of the authenticated user's contacts
// as JSON.
//
// The URL parameter 'name' matches contacts whose first or last name contains
// the given substring. The URL parameters 'email' and 'phone' are independent
// contains-matches. All present filters must hold at once, and only the
// user's own contacts are ever considered.
//
// The URL parameter 'page' selects the 1-indexed result page, 'size' the page
// length. Results are ordered by id, so repeated calls with the same filters
// page through a stable sequence.
//
// The total_page field of the page descriptor is derived from the user's full
// contact count, not from the filtered count. That mirrors the historical
// behavior of this API and is asserted by the tests.
//
// REST API calls:
//
//	> curl --header "X-API-TOKEN: ..." "http://localhost:8080/api/contacts"
//	> curl --header "X-API-TOKEN: ..." "http://localhost:8080/api/contacts?name=must"
//	> curl --header "X-API-TOKEN: ..." "http://localhost:8080/api/contacts?email=example.com&phone=0815"
//	> curl --header "X-API-TOKEN: ..." "http://localhost:8080/api/contacts?page=3&size=20"
func searchContacts(c *gin.Context) {
	page, size, success := parsePageAndSize(c)
	if !success {
		return
	}
	username := currentUser(c).Username

	var total int
	if err := db.Get(&total, "SELECT COUNT(*) FROM contacts WHERE username = ?", username); err != nil {
		log.Panicln(err)
	}

	sql := "SELECT * FROM contacts WHERE username = ?"
	args := []interface{}{username}
	if name := c.Query("name"); name != "" {
		sql += " AND (first_name LIKE ? OR last_name LIKE ?)"
		args = append(args, "%"+name+"%", "%"+name+"%")
	}
	if email := c.Query("email"); email != "" {
		sql += " AND email LIKE ?"
		args = append(args, "%"+email+"%")
	}
	if phone := c.Query("phone"); phone != "" {
		sql += " AND phone LIKE ?"
		args = append(args, "%"+phone+"%")
	}
	sql += " ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, size, (page-1)*size)

	var contacts []model.Contact
	if err := db.Select(&contacts, sql, args...); err != nil {
		log.Panicln(err)
	}

	data := make([]api.Contact, 0, len(contacts))
	for _, contact := range contacts {
		data = append(data, toContactResponse(contact))
	}
	c.IndentedJSON(http.StatusOK, api.ContactPage{
		Data: data,
		Paging: api.Paging{
			Size:        size,
			TotalPage:   (total + size - 1) / size,
			CurrentPage: page,
		},
	})
}
