package main

import (
	"fmt"
	"os"

	"eventlottery/internal/cli"
)

// @title Event Lottery API
// @version 1.0
// @description Waitlist, lottery draw, invitation and registration API for capacity-limited events.
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Example: "Bearer {token}"

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
