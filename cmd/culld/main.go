package main

import (
	"fmt"
	"os"
)

var version = "dev"

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Println(errorText(err.Error()))
		os.Exit(1)
	}
}
