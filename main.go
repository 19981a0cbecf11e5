package main

import "study-backend/cmd"

func main() {
	cmd.Execute()
}
