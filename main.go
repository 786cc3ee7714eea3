package main

import "github.com/envhound/envhound/cmd"

func main() {
	cmd.Execute()
}
