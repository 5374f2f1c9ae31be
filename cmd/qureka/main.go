package main

import (
	"log"

	"github.com/HeoSeonJin0504/qureka-server/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
