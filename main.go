package main

import "github.com/Rorical/RoriTalk/cmd"

func main() {
	cmd.Execute()
}
