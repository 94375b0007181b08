package main

import (
	"os"

	"homedash/internal/cli"
)

// @title           homedash API
// @version         1.0
// @description     Realtime home sensor dashboard with lamp control.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
