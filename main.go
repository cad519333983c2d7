package main

import "github.com/anoiana/soa-version1/cmd"

func main() {
	cmd.Execute()
}
