package main

import "github.com/kivohq/kivoctl/cmd"

func main() {
	cmd.Execute()
}
