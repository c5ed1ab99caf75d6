package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	api "gitlab.com/fadel.arrasyid/address-book-service/pkg/model"
)

const serverPort = 8080

// userEnvelope is the response wrapper around a user payload.
type userEnvelope struct {
	Data api.User `json:"data"`
}

// contactEnvelope is the response wrapper around a contact payload.
type contactEnvelope struct {
	Data api.Contact `json:"data"`
}

// addressEnvelope is the response wrapper around an address payload.
type addressEnvelope struct {
	Data api.Address `json:"data"`
}

// The client walks once through the whole API surface against a locally
// running service: register, login, contact CRUD and search, address CRUD,
// logout. It prints one line per step and panics on the first unexpected
// status code, which makes it usable as a smoke test after deployment.
//
// Usage example on the command line:
// > go run main.go
func main() {
	rand.Seed(time.Now().UnixNano())
	username := fmt.Sprintf("smoke%06d", rand.Intn(1000000))

	// register and login
	sendExpect(http.MethodPost, url("/api/users"), "", fmt.Sprintf(`
		{"username": %q, "password": "rahasia", "name": "Smoke Tester"}`, username),
		http.StatusOK, "register")
	var login userEnvelope
	body := sendExpect(http.MethodPost, url("/api/users/login"), "", fmt.Sprintf(`
		{"username": %q, "password": "rahasia"}`, username),
		http.StatusOK, "login")
	unmarshal(body, &login)
	token := login.Data.Token

	sendExpect(http.MethodGet, url("/api/users/current"), token, "", http.StatusOK, "current user")

	// contact lifecycle
	var created contactEnvelope
	body = sendExpect(http.MethodPost, url("/api/contacts"), token, `
		{"first_name": "Erika", "last_name": "Mustermann", "email": "erika@example.com", "phone": "0815"}`,
		http.StatusOK, "create contact")
	unmarshal(body, &created)
	contactURL := fmt.Sprintf("%s/%d", url("/api/contacts"), created.Data.Id)

	sendExpect(http.MethodGet, url("/api/contacts?name=must"), token, "", http.StatusOK, "search contacts")
	sendExpect(http.MethodGet, contactURL, token, "", http.StatusOK, "get contact")
	sendExpect(http.MethodPut, contactURL, token, `
		{"first_name": "Erika", "last_name": "Musterfrau", "phone": "4711"}`,
		http.StatusOK, "update contact")

	// address lifecycle underneath the contact
	var address addressEnvelope
	body = sendExpect(http.MethodPost, contactURL+"/addresses", token, `
		{"street": "Hlavni 12", "city": "Praha", "country": "CZ", "postal_code": "11000"}`,
		http.StatusOK, "create address")
	unmarshal(body, &address)
	addressURL := fmt.Sprintf("%s/addresses/%d", contactURL, address.Data.Id)

	sendExpect(http.MethodGet, contactURL+"/addresses", token, "", http.StatusOK, "list addresses")
	sendExpect(http.MethodGet, addressURL, token, "", http.StatusOK, "get address")
	sendExpect(http.MethodPut, addressURL, token, `
		{"street": "Vedlejsi 1", "city": "Brno", "country": "CZ", "postal_code": "60200"}`,
		http.StatusOK, "update address")
	sendExpect(http.MethodDelete, addressURL, token, "", http.StatusOK, "delete address")

	sendExpect(http.MethodDelete, contactURL, token, "", http.StatusOK, "delete contact")
	sendExpect(http.MethodGet, contactURL, token, "", http.StatusNotFound, "deleted contact is gone")

	sendExpect(http.MethodDelete, url("/api/users/current"), token, "", http.StatusOK, "logout")
	sendExpect(http.MethodGet, url("/api/users/current"), token, "", http.StatusUnauthorized, "token revoked")

	fmt.Println("all steps passed")
}

func url(path string) string {
	return fmt.Sprintf("http://localhost:%d%s", serverPort, path)
}

func sendExpect(method string, requestURL string, token string, body string, wantStatus int, step string) []byte {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = bytes.NewReader([]byte(body))
	}
	req, err := http.NewRequest(method, requestURL, bodyReader)
	if err != nil {
		fmt.Println("could not create request", err)
		panic(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-API-TOKEN", token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println("error making http request", err)
		panic(err)
	}
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		fmt.Println("could not read response body", err)
		panic(err)
	}
	fmt.Printf("%-25s %s %s -> %d\n", step, method, requestURL, res.StatusCode)
	if res.StatusCode != wantStatus {
		panic(fmt.Sprintf("%s: got status %d, want %d, body %s", step, res.StatusCode, wantStatus, resBody))
	}
	return resBody
}

func unmarshal(body []byte, target interface{}) {
	if err := json.Unmarshal(body, target); err != nil {
		fmt.Println("could not unmarshal JSON", err)
		panic(err)
	}
}
