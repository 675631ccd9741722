package main

import "github.com/hubbub-im/hubbub/cmd"

func main() {
	cmd.Execute()
}
