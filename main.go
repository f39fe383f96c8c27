package main

import (
	"log"
)

// Build infos injected at compile time with -ldflags.
var (
	GitCommit string
	GitTag    string
	BuildTime string
)

// @title           Library API
// @version         1.0
// @description     A simple library management API.
// @BasePath        /
func main() {
	app, err := NewApp()
	if err != nil {
		log.Fatal("application failed to initialized: ", err)
	}
	err = app.Run()
	if err != nil {
		log.Fatal("application exited. check logs for more details.", err)
	}
}
