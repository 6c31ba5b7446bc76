package main

import (
	"github.com/joho/godotenv"
	"github.com/neweragit/newera-server/cmd/server/cmd"
)

func main() {
	// Missing .env is fine; production configures through the environment.
	_ = godotenv.Load()
	cmd.Execute()
}
