package main

import "github.com/g1heapviz/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
