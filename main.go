package main

import (
	"hangout-api/core/logger"
	"hangout-api/core/server"
)

// @title Hangout API
// @version 1.0
// @description API Backend cho ứng dụng Hangout - Hẹn hò nhóm thông minh
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@hangout.vn

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:7070
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Example: "Bearer {token}"

func main() {
	if err := server.Run(); err != nil {
		logger.Error("run server error", err)
	}
}
