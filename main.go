package main

import "github.com/gaurav-prasanna/article2md/cmd"

func main() {
	cmd.Execute()
}
