package main

import (
	"log"
	"os"

	"notes2blog/cli"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	os.Exit(cli.Execute())
}
