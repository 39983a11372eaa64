package main

import "github.com/kozaktomas/clockin/cmd"

func main() {
	cmd.Execute()
}
