package main

import "stortingsync/cmd/server/cmd"

func main() {
	cmd.Execute()
}
