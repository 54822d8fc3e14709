// Command devtoken mints an access token signed with JWT_SECRET for local
// runs against the API.  Production tokens come from the identity provider.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/travel-booking-core/internal/utils"
)

func main() {
	_ = godotenv.Load()

	sub := flag.String("user", "", "user UUID (random when empty)")
	email := flag.String("email", "dev@example.com", "email claim")
	role := flag.String("role", "CUSTOMER", "role claim: CUSTOMER or STAFF")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logrus.Fatal("JWT_SECRET is not set")
	}
	id := uuid.New()
	if *sub != "" {
		parsed, err := uuid.Parse(*sub)
		if err != nil {
			logrus.WithError(err).Fatal("invalid -user")
		}
		id = parsed
	}
	tok, err := utils.NewAccessToken(secret, id, *email, *role, *ttl)
	if err != nil {
		logrus.WithError(err).Fatal("sign token")
	}
	fmt.Println(tok.Token)
	logrus.WithFields(logrus.Fields{"sub": id, "role": *role, "expires": tok.Exp.Format(time.RFC3339)}).Info("token issued")
}
