package main

import "officefruits/cmd"

func main() {
	cmd.Execute()
}
