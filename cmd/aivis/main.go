// Command aivis is the operator CLI for the dealership visibility engine.
package main

import "github.com/dealershipai/visibility-engine/internal/interfaces/cli"

func main() {
	cli.Execute()
}
