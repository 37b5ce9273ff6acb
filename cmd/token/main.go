package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"oracle-market/internal/auth"
	"oracle-market/internal/config"
)

func main() {
	subject := flag.String("subject", "operator", "token subject")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to TOKEN_TTL)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lifetime := *ttl
	if lifetime <= 0 {
		lifetime = cfg.App.TokenTTL
	}

	auth.InitJWT(cfg.App.JWTSecret)
	token, err := auth.GenerateToken(*subject, lifetime)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	log.Printf("Operator token for %q, expires %s", *subject, time.Now().Add(lifetime).Format(time.RFC3339))
	fmt.Println(token)
}
