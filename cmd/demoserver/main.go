// Package main boots the demo server application. Launched by a harness
// Session it hands control to the remote entry point after boot; started
// by hand it serves until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Vlatombe/jenkins-test-harness/internal/demoapp"
	"github.com/Vlatombe/jenkins-test-harness/pkg/harness"
	"github.com/Vlatombe/jenkins-test-harness/pkg/remote"
)

func main() {
	port := flag.Int("http-port", 8080, "TCP port to serve on")
	addr := flag.String("http-listen-address", "127.0.0.1", "address to bind")
	prefix := flag.String("prefix", "/", "HTTP context path")
	flag.Parse()

	home := os.Getenv(harness.EnvHome)
	if home == "" {
		var err error
		home, err = os.MkdirTemp("", "demoserver-")
		if err != nil {
			fmt.Fprintf(os.Stderr, "demoserver: %v\n", err)
			os.Exit(1)
		}
	}

	app := demoapp.New(home)
	if err := app.Start(fmt.Sprintf("%s:%d", *addr, *port), *prefix); err != nil {
		fmt.Fprintf(os.Stderr, "demoserver: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("demoserver: serving on %s (home %s)\n", app.Addr(), home)

	if remote.InLaunch() {
		remote.Run(app) // exits the process
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	if err := app.Shutdown(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "demoserver: shutdown: %v\n", err)
		os.Exit(1)
	}
}
