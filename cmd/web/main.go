// @title           Natours API
// @version         1.0
// @description     Tours, reviews, bookings and user accounts.
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:3000
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	_ "natours_backend/docs"
	"natours_backend/internal/app"
)

func main() {
	app.Run()
}
