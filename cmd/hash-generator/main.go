// Command hash-generator produces bcrypt credential hashes for operators
// provisioning users directly in the database. With no arguments it
// generates a fresh random secret and prints both the secret and its hash.
package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskboard/taskboard-api/internal/service/auth"
)

func main() {
	secret := ""
	if len(os.Args) > 1 {
		secret = os.Args[1]
	} else {
		generated, err := auth.GenerateSecret()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error generating secret: %v\n", err)
			os.Exit(1)
		}
		secret = generated
		fmt.Printf("Secret: %s\n", secret)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error generating hash: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Hash: %s\n", string(hash))
}
