package main

import (
	"github.com/gofiber/fiber/v2/log"

	"github.com/edupress/edu-platform-api/app"
)

func main() {
	if err := app.SetupAndRunServer(); err != nil {
		log.Fatal(err)
	}
}
