package main

import "github.com/modkit/wsmerge/cmd"

func main() {
	cmd.Execute()
}
