package main

import (
	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/raffle-hub/raffle-api/cmd/app"
)

// @title        Raffle API
// @version      1.0
// @description  Raffle tickets, quota reservations and payment confirmation.
// @BasePath     /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token
func main() {
	if err := app.Start(); err != nil {
		panic(err)
	}
}
