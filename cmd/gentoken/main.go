// Command gentoken mints a session token for local testing.
//
// Usage:
//
//	JWT_SECRET=... go run ./cmd/gentoken -subject <profile-id> -org <org-id> -role admin
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/carebridge-health/portal/internal/auth"
)

func main() {
	subject := flag.String("subject", "", "profile id (token subject)")
	email := flag.String("email", "dev@example.com", "email claim")
	org := flag.String("org", "", "organization id claim")
	role := flag.String("role", "user", "role claim (admin, user, doctor)")
	expiry := flag.Duration("expiry", 24*time.Hour, "token lifetime")
	issuer := flag.String("issuer", "carebridge-portal", "issuer claim")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is required")
		os.Exit(1)
	}
	if *subject == "" || *org == "" {
		fmt.Fprintln(os.Stderr, "-subject and -org are required")
		os.Exit(1)
	}
	if !auth.ValidRole(*role) {
		fmt.Fprintf(os.Stderr, "invalid role %q\n", *role)
		os.Exit(1)
	}

	tokens := auth.NewTokenManager(secret, *expiry, *issuer)
	token, err := tokens.Generate(*subject, *email, *org, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
