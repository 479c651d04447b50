package main

import "github.com/JonMunkholm/sheetserve/internal/cli"

func main() {
	cli.Execute()
}
