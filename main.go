package main

import "github.com/leofor19/hackeeg-go/cmd"

func main() {
	cmd.Execute()
}
