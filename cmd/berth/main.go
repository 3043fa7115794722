// Berth provisions short-lived service containers for test suites.
package main

import (
	"os"

	"github.com/schmitthub/berth/internal/berthcli"
)

func main() {
	os.Exit(berthcli.Main())
}
