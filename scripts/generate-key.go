// Package main is a development utility for generating a random JWT signing
// secret. It prints a base64url-encoded 48-byte secret ready to export as
// WCB_JWT_SECRET. Do not reuse generated secrets across environments — rotating
// the secret invalidates every outstanding token, which is the intended way to
// force a global re-login.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
)

func main() {
	// Generate random bytes
	randomBytes := make([]byte, 48)
	_, err := rand.Read(randomBytes)
	if err != nil {
		log.Fatal(err)
	}

	// Encode to base64
	secret := base64.RawURLEncoding.EncodeToString(randomBytes)

	fmt.Println("==========================================================")
	fmt.Println("JWT Secret Generated")
	fmt.Println("==========================================================")
	fmt.Printf("\nexport WCB_JWT_SECRET=%s\n\n", secret)
	fmt.Println("==========================================================")
}
