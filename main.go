package main

import "github.com/shouni/review-keyword-pipe-go/cmd"

func main() {
	cmd.Execute()
}
