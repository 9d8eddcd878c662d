// Command devtoken prints an HS256 bearer token accepted by the service when
// it runs with DEV_JWT_SECRET instead of an OIDC issuer.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"ms-campus/internal/auth"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func main() {
	var (
		sub   = flag.String("sub", "", "subject (user id)")
		email = flag.String("email", "", "email claim")
		name  = flag.String("name", "", "display name claim")
		ttl   = flag.Duration("ttl", 24*time.Hour, "token lifetime")
	)
	flag.Parse()

	_ = godotenv.Load()
	secret := os.Getenv("DEV_JWT_SECRET")
	if secret == "" || *sub == "" {
		color.Red("DEV_JWT_SECRET and -sub are required")
		os.Exit(2)
	}

	token, err := auth.IssueDevToken(secret, auth.Identity{Subject: *sub, Email: *email, Name: *name}, *ttl)
	if err != nil {
		color.Red("failed to sign token: %v", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
