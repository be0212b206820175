package main

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
)

type cli struct {
	Config  string `help:"TOML file with mode, compression and decode limits." type:"existingfile" optional:""`
	Verbose bool   `help:"Log debug detail to stderr." short:"v"`

	Dump    dumpCmd    `cmd:"" help:"Print a tag file as JSON."`
	Get     getCmd     `cmd:"" help:"Print the tags a path selects, one JSON value per line."`
	Check   checkCmd   `cmd:"" help:"Decode files and report the ones that fail."`
	Convert convertCmd `cmd:"" help:"Re-encode a tag file with another compression or mode."`
	Build   buildCmd   `cmd:"" help:"Encode a JSON object as a tag file."`
	Merge   mergeCmd   `cmd:"" help:"Merge a patch file into a target file."`
	Patch   patchCmd   `cmd:"" help:"Apply a JSON patch (RFC 6902 operations) to a tag file."`
}

// runContext is handed to every command's Run method.
type runContext struct {
	cfg    config
	logger zerolog.Logger
	out    io.Writer
}

func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(level).With().Timestamp().Str("app", "nbtool").Logger()
}

func main() {
	log.SetFlags(0)

	var args cli
	ctx := kong.Parse(&args,
		kong.Name("nbtool"),
		kong.Description("Inspect, convert and build Named Binary Tag files."),
		kong.UsageOnError(),
	)

	cfg, err := loadConfig(args.Config)
	if err != nil {
		log.Fatal(err)
	}

	rc := &runContext{
		cfg:    cfg,
		logger: newLogger(os.Stderr, args.Verbose),
		out:    os.Stdout,
	}
	ctx.FatalIfErrorf(ctx.Run(rc))
}
