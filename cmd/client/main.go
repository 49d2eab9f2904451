package main

import "stortingsync/cmd/client/cmd"

func main() {
	cmd.Execute()
}
