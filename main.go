package main

import "hnprep/cmd"

func main() {
	cmd.Execute()
}
