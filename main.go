// main.go
package main

import (
	"log"

	"eventify-api/cmd"
)

func main() {
	if err := cmd.Start(); err != nil {
		log.Fatal(err)
	}
}
