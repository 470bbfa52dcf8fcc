// Command tokengen mints a bearer token for a principal, signed with the
// server's secret. It reads the same configuration as the server:
//
//	tokengen -c server.yaml ann@example.com
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/beanfeed/internal/server/auth"
	"github.com/dmitrijs2005/beanfeed/internal/server/config"
)

func main() {
	cfg := config.LoadConfig()

	principal := lastArg(os.Args[1:])
	if principal == "" {
		fmt.Fprintln(os.Stderr, "usage: tokengen [-c config] [-s secret] [-t minutes] <principal>")
		os.Exit(2)
	}

	token, err := auth.GenerateToken(principal, []byte(cfg.SecretKey), cfg.AccessTokenValidityDuration)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}

// lastArg returns the final argument unless it is a flag or a flag value.
func lastArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	last := args[len(args)-1]
	if strings.HasPrefix(last, "-") {
		return ""
	}
	if len(args) > 1 {
		prev := args[len(args)-2]
		if strings.HasPrefix(prev, "-") && !strings.Contains(prev, "=") {
			return ""
		}
	}
	return last
}
