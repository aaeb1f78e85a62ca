package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	flags "github.com/jessevdk/go-flags"
)

// Stands in for bin/catalina.sh: prints Tomcat-like startup output including
// the auto-port connector line, serves a page on that port and runs until
// signalled.
type flagOptions struct {
	RunDuration int `long:"run-duration" description:"Duration in seconds to run before exiting on its own (debug feature)"`
	StartDelay  int `long:"start-delay" description:"Milliseconds to wait before announcing the port"`

	Args struct {
		Command string `positional-arg-name:"command" description:"catalina command, only run is supported"`
	} `positional-args:"yes"`
}

func main() {
	var opts flagOptions
	var argv []string = os.Args[1:]
	var parser = flags.NewParser(&opts, flags.HelpFlag)
	var err error
	_, err = parser.ParseArgs(argv)
	if err != nil {
		fmt.Printf("Command line flags parsing failed: %v\n", err)
		os.Exit(1)
	}

	if opts.Args.Command != "run" {
		fmt.Fprintf(os.Stderr, "Usage: fakecatalina run\n")
		os.Exit(1)
	}

	fmt.Printf("Using CATALINA_BASE:   %s\n", os.Getenv("CATALINA_BASE"))
	fmt.Printf("Using CATALINA_HOME:   %s\n", os.Getenv("CATALINA_HOME"))
	fmt.Printf("Using CATALINA_TMPDIR: %s\n", os.Getenv("CATALINA_TMPDIR"))

	ctx := context.Background()
	if opts.RunDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(opts.RunDuration)*time.Second)
		defer cancel()
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		fmt.Fprintf(os.Stderr, "SEVERE: Failed to initialize end point associated with ProtocolHandler: %v\n", err)
		os.Exit(1)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, "fakecatalina on port %d, path %s\n", port, r.URL.Path)
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go server.Serve(listener)

	fmt.Printf("INFO: Initializing ProtocolHandler [\"http-bio-127.0.0.1-auto-1\"]\n")
	time.Sleep(time.Duration(opts.StartDelay) * time.Millisecond)
	fmt.Printf("INFO: Starting ProtocolHandler [\"http-bio-127.0.0.1-auto-1-%d\"]\n", port)
	fmt.Printf("INFO: Server startup in %d ms\n", opts.StartDelay)

	sig := make(chan os.Signal, 1)
	if runtime.GOOS == "windows" {
		signal.Notify(sig) // Unix signals not implemented on Windows
	} else {
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	}

	select {
	case receivedSignal := <-sig:
		fmt.Printf("INFO: Received signal: %v\n", receivedSignal)
	case <-ctx.Done():
		fmt.Fprintf(os.Stderr, "SEVERE: Run duration elapsed, exiting\n")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)

	fmt.Printf("INFO: Stopping ProtocolHandler [\"http-bio-127.0.0.1-auto-1-%d\"]\n", port)
}
