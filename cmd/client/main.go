package main

import "reptisync/cmd/client/cmd"

func main() {
	cmd.Execute()
}
