// Command mansion-calc resolves BaZi, lunar mansion and lucky angle readings from
// the command line, without starting the server.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, nil).Execute(); err != nil {
		os.Exit(1)
	}
}
