// Package main is the entry point for the loan advisor service.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/loan-advisor/cmd/loan-advisor/app"
)

func main() {
	app.NewApp().Run()
}
