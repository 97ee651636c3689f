package main

import "reptisync/cmd/server/cmd"

func main() {
	cmd.Execute()
}
