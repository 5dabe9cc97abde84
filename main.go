package main

import "togethermiles-backend/cmd"

func main() {
	cmd.Run()
}
