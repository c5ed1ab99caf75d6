package main

import (
	"fmt"
	"net/http"
	"time"
)

// The poller asks for the current user without a token. As soon as the
// service is up, the auth guard answers with 401, anything else means the
// service is still starting.
func main() {
	totalWaitTime := 0
	for {
		res, err := http.Get("http://localhost:8080/api/users/current")
		if err == nil {
			if res.StatusCode == http.StatusUnauthorized {
				fmt.Println(res)
				break
			} else {
				fmt.Println(res)
			}
		} else {
			fmt.Println(err)
		}
		totalWaitTime += 5
		fmt.Printf("Waiting %d seconds", totalWaitTime)
		fmt.Println()
		time.Sleep(5 * time.Second)
	}
}
