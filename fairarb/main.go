// Command fairarb runs arbitration scenarios described in YAML files.
package main

import (
	"github.com/sarchlab/fairarb/fairarb/cmd"
	"github.com/tebeka/atexit"
)

func main() {
	cmd.Execute()
	atexit.Exit(0)
}
