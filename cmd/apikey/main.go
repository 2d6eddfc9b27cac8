package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/flexprice/cashier/internal/auth"
	"github.com/flexprice/cashier/internal/config"
)

func main() {
	userID := flag.String("user", "", "user recorded as created_by for requests made with the credential")
	token := flag.Bool("token", false, "issue a bearer token signed with auth.secret instead of an API key")
	ttl := flag.Duration("ttl", 30*24*time.Hour, "bearer token lifetime")
	flag.Parse()

	if *userID == "" {
		log.Fatal("-user is required")
	}

	if *token {
		cfg, err := config.NewConfig()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		signed, err := auth.NewTokenProvider(cfg).GenerateToken(*userID, time.Now(), *ttl)
		if err != nil {
			log.Fatalf("Unable to issue token: %v", err)
		}
		fmt.Println(signed)
		return
	}

	key, err := auth.GenerateAPIKey()
	if err != nil {
		log.Fatalf("Unable to generate key: %v", err)
	}
	fmt.Println("API key (give to the caller):", key)
	fmt.Println("Add to auth.api_key.keys in config.yaml:")
	fmt.Printf("    %s:\n      name: %q\n      user_id: %q\n      is_active: true\n", auth.HashAPIKey(key), *userID, *userID)
}
