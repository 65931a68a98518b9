// Command devtoken mints a bearer token for local testing against the
// configured signing key.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	jwttoken "realtyvest/internal/jwt_token"
	"realtyvest/internal/platform/config"
	id "realtyvest/pkg/domain"
)

func main() {
	user := flag.String("user", "", "user ID (a new one is generated when empty)")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	userID := id.UserID(uuid.New())
	if *user != "" {
		if userID, err = id.ParseUserID(*user); err != nil {
			fmt.Fprintf(os.Stderr, "user: %v\n", err)
			os.Exit(2)
		}
	}

	svc := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)
	token, err := svc.GenerateAccessToken(userID, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("user_id=%s\n%s\n", userID, token)
}
