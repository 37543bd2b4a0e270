package main

import (
	"github.com/csams/podcast-admin/cmd"
)

func main() {
	cmd.Execute()
}
