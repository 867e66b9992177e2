package main

import "github.com/brogergvhs/comicwalk/cmd"

func main() {
	cmd.Execute()
}
