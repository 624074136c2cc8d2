package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rakhabima/Boros-Lu-Miskin/internal/linktoken"
)

// Signs a Telegram link token for a user id, for exercising the webhook
// by hand. The secret comes from TELEGRAM_LINK_SECRET so the token
// matches what the running server will accept.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: go run scripts/sign-link-token.go <user-id> [ttl-minutes]\n")
		os.Exit(1)
	}

	secret := os.Getenv("TELEGRAM_LINK_SECRET")
	if secret == "" {
		fmt.Fprintf(os.Stderr, "Error: TELEGRAM_LINK_SECRET is not set\n")
		os.Exit(1)
	}

	userID, err := strconv.ParseInt(os.Args[1], 10, 64)
	if err != nil || userID <= 0 {
		fmt.Fprintf(os.Stderr, "Error: invalid user id %q\n", os.Args[1])
		os.Exit(1)
	}

	ttl := 5 * time.Minute
	if len(os.Args) > 2 {
		minutes, err := strconv.Atoi(os.Args[2])
		if err != nil || minutes <= 0 {
			fmt.Fprintf(os.Stderr, "Error: invalid ttl %q\n", os.Args[2])
			os.Exit(1)
		}
		ttl = time.Duration(minutes) * time.Minute
	}

	signer, err := linktoken.NewSigner(secret)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	token, err := signer.Sign(userID, ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
