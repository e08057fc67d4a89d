// Command tokenctl issues a signed user JWT for calling the token API in
// local and staging environments.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/iliyamo/pipeline-tokens/internal/config"
	"github.com/iliyamo/pipeline-tokens/internal/utils"
)

func main() {
	var (
		username   string
		scmContext string
		scope      string
		ttl        time.Duration
	)
	flag.StringVar(&username, "user", "", "username on the SCM host")
	flag.StringVar(&scmContext, "scm-context", "github:github.com", "SCM context of the user")
	flag.StringVar(&scope, "scope", "user", "comma separated scope list")
	flag.DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	flag.Parse()

	if username == "" {
		log.Fatal("-user is required")
	}
	config.LoadDotEnv()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	at, err := utils.NewAccessToken(secret, username, scmContext, splitScope(scope), ttl)
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	fmt.Println(at.Token)
}

func splitScope(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
