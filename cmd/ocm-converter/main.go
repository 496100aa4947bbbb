package main

import (
	"ocm.software/open-component-model/bindings/go/converter/cmd/ocm-converter/cmd"
)

func main() {
	cmd.Execute()
}
