package main

import (
	"flag"

	"github.com/swdee/go-rcfollow/logging"
)

func main() {

	addr := flag.String("a", "127.0.0.1:8080", "Address to listen on, format address:port")
	level := flag.String("l", "info", "Log level")

	flag.Parse()

	log, err := logging.New(logging.Options{Level: *level})

	if err != nil {
		panic(err)
	}

	app := NewApp(NewCar(log))

	log.WithField("addr", *addr).Info("Simulated car listening")

	if err := app.Listen(*addr); err != nil {
		log.WithError(err).Fatal("Simulated car stopped")
	}
}
