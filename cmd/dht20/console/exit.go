package console

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// Exit builds an error that makes the cli app terminate with the given code.
// Any error argument is printed in red.
func Exit(code int, msg string, args ...interface{}) cli.ExitCoder {
	for i, a := range args {
		if err, ok := a.(error); ok {
			args[i] = Red(err)
		}
	}
	return cli.Exit(fmt.Sprintf(msg, args...), code)
}
