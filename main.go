package main

import "github.com/Gustavo-Feijo/league-crawler/cmd"

func main() {
	cmd.Execute()
}
