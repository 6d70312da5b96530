package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/platinummonkey/casserver/pkg/authz"
	"github.com/platinummonkey/casserver/pkg/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		var denial *authz.UnauthorizedServiceError
		if errors.As(err, &denial) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
