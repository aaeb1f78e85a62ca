package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	flags "github.com/jessevdk/go-flags"

	"github.com/core-tools/hsu-webber/pkg/logcollection"
	"github.com/core-tools/hsu-webber/pkg/webber"
)

type flagOptions struct {
	Config      string  `long:"config" short:"c" description:"path to the YAML configuration file"`
	Base        string  `long:"base" description:"directory holding the server distribution (default: executable directory)"`
	ConfigDir   string  `long:"config-dir" description:"writable configuration directory (default: ~/.webber)"`
	Title       string  `long:"title" description:"title shown with the status and targets"`
	Width       float64 `long:"width" description:"target window width"`
	Height      float64 `long:"height" description:"target window height"`
	LogLevel    string  `long:"log-level" description:"debug, info, warn or error"`
	Open        bool    `long:"open" description:"open targets in the system browser once the server is up"`
	RunDuration int     `long:"run-duration" description:"Duration in seconds to run webber (debug feature)"`

	Args struct {
		URLs []string `positional-arg-name:"url" description:"target URLs, port 0 is replaced by the server port"`
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

	config, err := loadConfig(opts)
	if err != nil {
		fmt.Printf("Configuration failed: %v\n", err)
		os.Exit(1)
	}

	backend, err := logcollection.NewZapAdapter(config.Log)
	if err != nil {
		fmt.Printf("Logger setup failed: %v\n", err)
		os.Exit(1)
	}
	defer backend.Sync()

	logger := logcollection.NewLogger("module: webber-srv, ", backend)
	logger.Infof("opts: %+v", opts)

	app, err := webber.NewApp(config, webber.AppOptions{
		OpenURL:    webber.OpenBrowser,
		Parameters: flagParameters(opts),
	}, backend)
	if err != nil {
		logger.Errorf("Failed to create webber: %v", err)
		backend.Sync()
		os.Exit(1)
	}

	runDuration := time.Duration(opts.RunDuration) * time.Second
	if err := webber.Run(context.Background(), app, runDuration, logger); err != nil {
		logger.Errorf("Webber failed: %v", err)
		backend.Sync()
		os.Exit(1)
	}
}

func loadConfig(opts flagOptions) (*webber.WebberConfig, error) {
	config := webber.DefaultConfig()
	if opts.Config != "" {
		var err error
		config, err = webber.LoadConfigFromFile(opts.Config)
		if err != nil {
			return nil, err
		}
	}

	if opts.Base != "" {
		config.Server.BaseDirectory = opts.Base
	}
	if opts.ConfigDir != "" {
		config.Server.ConfigDirectory = opts.ConfigDir
	}
	if opts.LogLevel != "" {
		config.Log.Level = opts.LogLevel
	}
	if opts.Open {
		config.Client.OpenBrowser = true
	}

	return config, webber.ValidateConfig(config)
}

// flagParameters turns flags that override the client section into parameters
func flagParameters(opts flagOptions) webber.Parameters {
	named := make(map[string]string)
	if opts.Title != "" {
		named[webber.ParamTitle] = opts.Title
	}
	if opts.Width > 0 {
		named[webber.ParamWidth] = strconv.FormatFloat(opts.Width, 'f', -1, 64)
	}
	if opts.Height > 0 {
		named[webber.ParamHeight] = strconv.FormatFloat(opts.Height, 'f', -1, 64)
	}
	return webber.NewParameters(named, opts.Args.URLs)
}
