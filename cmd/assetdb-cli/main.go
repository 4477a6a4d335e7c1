package main

import "assetdb/cmd/assetdb-cli/cmd"

func main() {
	cmd.Execute()
}
