package main

import (
	"github.com/asaidimu/go-sieve/cmd/sieve"
)

func main() {
	sieve.Execute()
}
