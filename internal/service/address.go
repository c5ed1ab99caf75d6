package service

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gitlab.com/fadel.arrasyid/address-book-service/internal/model"
	api "gitlab.com/fadel.arrasyid/address-book-service/pkg/model"
)

// addressRequest is the request body for creating or replacing an address.
// Country and postal code are mandatory.
type addressRequest struct {
	Street     *string `json:"street"      binding:"omitempty,max=255"`
	City       *string `json:"city"        binding:"omitempty,max=100"`
	Province   *string `json:"province"    binding:"omitempty,max=100"`
	Country    string  `json:"country"     binding:"required,max=100"`
	PostalCode string  `json:"postal_code" binding:"required,max=10"`
}

// toAddressResponse strips an address down to its public fields, dropping the
// owning contact id.
func toAddressResponse(address model.Address) api.Address {
	return api.Address{
		Id:         address.Id,
		Street:     address.Street,
		City:       address.City,
		Province:   address.Province,
		Country:    address.Country,
		PostalCode: address.PostalCode,
	}
}

// requireOwnedContact verifies the first hop of the ownership chain: the id
// URL parameter must name a contact of the authenticated user. On failure the
// request is aborted with 404 and the returned flag is false.
func requireOwnedContact(c *gin.Context) (contactId string, success bool) {
	contactId = c.Param("id")
	if _, err := strconv.Atoi(contactId); err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"errors": "contact is not found"})
		return "", false
	}
	if _, found := findContactWhereIdAndOwner(contactId, currentUser(c).Username); !found {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"errors": "contact is not found"})
		return "", false
	}
	return contactId, true
}

// findAddressWhereIdAndContact fetches the address with the given id that
// belongs to the given contact. Like the contact lookup, absence and wrong
// ownership are indistinguishable.
func findAddressWhereIdAndContact(id string, contactId string) (model.Address, bool) {
	var addresses []model.Address
	if err := selectAddressWhereIdAndContact.Select(&addresses, id, contactId); err != nil {
		log.Panicln(err)
	}
	if len(addresses) == 0 {
		return model.Address{}, false
	}
	return addresses[0], true
}

// createAddress inserts the address specified in the request's JSON under the
// contact named by the URL, provided that contact belongs to the
// authenticated user.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts/56/addresses --request "POST" --include --header "Content-Type: application/json" --header "X-API-TOKEN: ..." --data '{"street": "Hlavni 12", "city": "Praha", "country": "CZ", "postal_code": "11000"}'
func createAddress(c *gin.Context) {
	var request addressRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": bindingErrorMessage(err)})
		return
	}
	contactId, success := requireOwnedContact(c)
	if !success {
		return
	}

	address := model.Address{
		Street:     normalizeOptional(request.Street),
		City:       normalizeOptional(request.City),
		Province:   normalizeOptional(request.Province),
		Country:    request.Country,
		PostalCode: request.PostalCode,
	}
	result := db.MustExec(`
		INSERT INTO addresses (street, city, province, country, postal_code, contact_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		address.Street, address.City, address.Province, address.Country,
		address.PostalCode, contactId)
	id, err := result.LastInsertId()
	if err != nil {
		log.Panicln(err)
	}
	address.Id = id

	c.IndentedJSON(http.StatusOK, gin.H{"data": toAddressResponse(address)})
}

// listAddresses responds with all addresses of an owned contact as JSON.
//
// Example REST API call:
//
//	> curl --header "X-API-TOKEN: ..." http://localhost:8080/api/contacts/56/addresses
func listAddresses(c *gin.Context) {
	contactId, success := requireOwnedContact(c)
	if !success {
		return
	}

	var addresses []model.Address
	if err := db.Select(&addresses, "SELECT * FROM addresses WHERE contact_id = ? ORDER BY id", contactId); err != nil {
		log.Panicln(err)
	}
	data := make([]api.Address, 0, len(addresses))
	for _, address := range addresses {
		data = append(data, toAddressResponse(address))
	}
	c.IndentedJSON(http.StatusOK, gin.H{"data": data})
}

// findAddressByID walks the full ownership chain and returns the address as
// a response: the contact must belong to the authenticated user and the
// address must belong to that contact.
//
// Example REST API call:
//
//	> curl --header "X-API-TOKEN: ..." http://localhost:8080/api/contacts/56/addresses/3
func findAddressByID(c *gin.Context) {
	contactId, success := requireOwnedContact(c)
	if !success {
		return
	}
	id := c.Param("addressId")
	if _, err := strconv.Atoi(id); err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"errors": "address is not found"})
		return
	}

	address, found := findAddressWhereIdAndContact(id, contactId)
	if !found {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"errors": "address is not found"})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"data": toAddressResponse(address)})
}

// updateAddressByID replaces the address whose ID value matches the addressId
// parameter of the request URL with the values from the JSON, after both hops
// of the ownership chain have been verified. The update statement repeats the
// chain filter.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts/56/addresses/3 --request "PUT" --include --header "Content-Type: application/json" --header "X-API-TOKEN: ..." --data '{"street": "Vedlejsi 1", "city": "Brno", "country": "CZ", "postal_code": "60200"}'
func updateAddressByID(c *gin.Context) {
	var request addressRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": bindingErrorMessage(err)})
		return
	}
	contactId, success := requireOwnedContact(c)
	if !success {
		return
	}
	id := c.Param("addressId")
	idAsInt, errConv := strconv.Atoi(id)
	if errConv != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"errors": "address is not found"})
		return
	}
	if _, found := findAddressWhereIdAndContact(id, contactId); !found {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"errors": "address is not found"})
		return
	}

	address := model.Address{
		Id:         int64(idAsInt),
		Street:     normalizeOptional(request.Street),
		City:       normalizeOptional(request.City),
		Province:   normalizeOptional(request.Province),
		Country:    request.Country,
		PostalCode: request.PostalCode,
	}
	db.MustExec(`
		UPDATE addresses SET street=?, city=?, province=?, country=?, postal_code=?
		WHERE id=? AND contact_id=?`,
		address.Street, address.City, address.Province, address.Country,
		address.PostalCode, id, contactId)

	c.IndentedJSON(http.StatusOK, gin.H{"data": toAddressResponse(address)})
}

// deleteAddressByID deletes the address whose ID value matches the addressId
// parameter of the request URL, after both hops of the ownership chain have
// been verified.
//
// Example REST API call:
//
//	> curl --header "X-API-TOKEN: ..." http://localhost:8080/api/contacts/56/addresses/3 --request "DELETE"
func deleteAddressByID(c *gin.Context) {
	contactId, success := requireOwnedContact(c)
	if !success {
		return
	}
	id := c.Param("addressId")
	if _, err := strconv.Atoi(id); err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"errors": "address is not found"})
		return
	}
	if _, found := findAddressWhereIdAndContact(id, contactId); !found {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"errors": "address is not found"})
		return
	}

	result := db.MustExec("DELETE FROM addresses WHERE id=? AND contact_id=?", id, contactId)
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Panicln(err)
	}
	if rowsAffected == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"errors": "address is not found"})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"data": "OK"})
}
