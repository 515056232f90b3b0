// Package main mints service and admin JWTs for operators and CI. Identity
// is managed outside this repository; this tool exists so the internal and
// admin endpoints can be exercised without the external issuer.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"tally/internal/config"
	"tally/internal/models"
	"tally/internal/utils"
)

func main() {
	userID := flag.String("user", "", "subject user id")
	role := flag.String("role", models.RoleService, "token role (user, service, admin)")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *userID == "" {
		log.Fatal("-user is required")
	}
	switch *role {
	case models.RoleUser, models.RoleService, models.RoleAdmin:
	default:
		log.Fatalf("unknown role %q", *role)
	}

	config.LoadEnv()
	secret := config.GetEnv("JWT_SECRET", "tally-dev-secret")

	token, err := utils.GenerateToken(*userID, *role, secret, *ttl)
	if err != nil {
		log.Fatalf("failed to generate token: %v", err)
	}
	fmt.Println(token)
}
