package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	nbt "github.com/starfederation/nbt-go"
	"github.com/starfederation/nbt-go/merge"
	"github.com/starfederation/nbt-go/patch"
	"github.com/starfederation/nbt-go/path"
)

type dumpCmd struct {
	File     string `arg:"" help:"Tag file to read." type:"existingfile"`
	WithName bool   `help:"Wrap the output as {\"name\":...,\"value\":...}."`
}

func (c *dumpCmd) Run(rc *runContext) error {
	root, err := rc.read(c.File)
	if err != nil {
		return err
	}
	var sb strings.Builder
	if c.WithName {
		sb.WriteString(`{"name":`)
		if err := nbt.WriteJSON(&sb, nbt.String(root.Name)); err != nil {
			return err
		}
		sb.WriteString(`,"value":`)
	}
	if err := nbt.WriteJSON(&sb, root.Compound); err != nil {
		return fmt.Errorf("render %s: %w", c.File, err)
	}
	if c.WithName {
		sb.WriteByte('}')
	}
	sb.WriteByte('\n')
	_, err = fmt.Fprint(rc.out, sb.String())
	return err
}

type getCmd struct {
	File string `arg:"" help:"Tag file to read." type:"existingfile"`
	Path string `arg:"" help:"Path expression, for example Data.Player.Inventory[0].id."`
}

func (c *getCmd) Run(rc *runContext) error {
	expr, err := path.Compile(c.Path)
	if err != nil {
		return err
	}
	root, err := rc.read(c.File)
	if err != nil {
		return err
	}
	matches := expr.Get(root.Compound)
	rc.logger.Debug().Str("path", expr.String()).Int("matches", len(matches)).Msg("evaluated path")
	if len(matches) == 0 {
		return fmt.Errorf("%w: %s", path.ErrNoMatch, c.Path)
	}
	for _, m := range matches {
		s, err := nbt.ToJSON(m)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(rc.out, s); err != nil {
			return err
		}
	}
	return nil
}

type checkCmd struct {
	Files []string `arg:"" help:"Tag files to validate." type:"existingfile"`
}

func (c *checkCmd) Run(rc *runContext) error {
	failed := 0
	for _, f := range c.Files {
		root, comp, err := nbt.ReadFile(f, rc.cfg.decodeOptions())
		if err != nil {
			failed++
			rc.logger.Error().Err(err).Str("file", f).Str("kind", nbt.KindOf(err).String()).Msg("decode failed")
			continue
		}
		rc.logger.Info().
			Str("file", f).
			Str("compression", comp.String()).
			Str("root", root.Name).
			Int("members", root.Compound.Len()).
			Msg("ok")
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(c.Files))
	}
	return nil
}

type convertCmd struct {
	In          string `arg:"" help:"Tag file to read." type:"existingfile"`
	Out         string `arg:"" help:"Destination file."`
	Compression string `help:"Output compression: none, gzip, zlib, zstd, lz4 or snappy. Defaults to the configured compression."`
	OutMode     string `help:"Output framing: file or network. Defaults to the configured mode." name:"out-mode"`
}

func (c *convertCmd) Run(rc *runContext) error {
	root, err := rc.read(c.In)
	if err != nil {
		return err
	}
	opts, err := rc.writeOptions(c.Compression, c.OutMode)
	if err != nil {
		return err
	}
	return rc.write(c.Out, root, opts)
}

type buildCmd struct {
	In          string `arg:"" help:"JSON file holding an object, or - for stdin."`
	Out         string `arg:"" help:"Destination file."`
	Name        string `help:"Root name written in file mode."`
	Compression string `help:"Output compression. Defaults to the configured compression."`
}

func (c *buildCmd) Run(rc *runContext) error {
	var data []byte
	var err error
	if c.In == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(c.In)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", c.In, err)
	}
	compound, err := nbt.CompoundFromJSON(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", c.In, err)
	}
	opts, err := rc.writeOptions(c.Compression, "")
	if err != nil {
		return err
	}
	return rc.write(c.Out, nbt.NewRoot(c.Name, compound), opts)
}

type mergeCmd struct {
	Target      string `arg:"" help:"Tag file to merge into." type:"existingfile"`
	Patch       string `arg:"" help:"Tag file or JSON object (.json) with the changes." type:"existingfile"`
	Out         string `arg:"" help:"Destination file."`
	AppendLists bool   `help:"Append patch lists to target lists of the same element type instead of replacing them."`
}

func (c *mergeCmd) Run(rc *runContext) error {
	target, err := rc.read(c.Target)
	if err != nil {
		return err
	}
	var patch *nbt.Compound
	if strings.HasSuffix(c.Patch, ".json") {
		data, err := os.ReadFile(c.Patch)
		if err != nil {
			return fmt.Errorf("read %s: %w", c.Patch, err)
		}
		if patch, err = nbt.CompoundFromJSON(data); err != nil {
			return fmt.Errorf("parse %s: %w", c.Patch, err)
		}
	} else {
		root, err := rc.read(c.Patch)
		if err != nil {
			return err
		}
		patch = root.Compound
	}
	opts := merge.Options{MaxDepth: int(rc.cfg.Limits.MaxDepth)}
	if c.AppendLists {
		opts.Lists = merge.ListAppend
	}
	merged, err := merge.MergeWith(target.Compound, patch, opts)
	if err != nil {
		return err
	}
	wopts, err := rc.writeOptions("", "")
	if err != nil {
		return err
	}
	return rc.write(c.Out, nbt.NewRoot(target.Name, merged), wopts)
}

type patchCmd struct {
	File  string `arg:"" help:"Tag file to patch." type:"existingfile"`
	Patch string `arg:"" help:"JSON array of patch operations." type:"existingfile"`
	Out   string `arg:"" help:"Destination file."`
}

func (c *patchCmd) Run(rc *runContext) error {
	root, err := rc.read(c.File)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(c.Patch)
	if err != nil {
		return fmt.Errorf("read %s: %w", c.Patch, err)
	}
	ops, err := patch.ParseJSON(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", c.Patch, err)
	}
	patched, err := patch.Apply(root.Compound, ops)
	if err != nil {
		return err
	}
	rc.logger.Debug().Int("ops", len(ops)).Msg("applied patch")
	opts, err := rc.writeOptions("", "")
	if err != nil {
		return err
	}
	return rc.write(c.Out, nbt.NewRoot(root.Name, patched), opts)
}

func (rc *runContext) read(file string) (nbt.Root, error) {
	root, comp, err := nbt.ReadFile(file, rc.cfg.decodeOptions())
	if err != nil {
		return nbt.Root{}, err
	}
	rc.logger.Debug().
		Str("file", file).
		Str("compression", comp.String()).
		Str("mode", rc.cfg.Mode.String()).
		Msg("read")
	return root, nil
}

func (rc *runContext) write(file string, root nbt.Root, opts nbt.WriteOptions) error {
	if err := nbt.WriteFile(file, root, opts); err != nil {
		return err
	}
	rc.logger.Info().
		Str("file", file).
		Str("compression", opts.Compression.String()).
		Str("mode", opts.Mode.String()).
		Msg("wrote")
	return nil
}

// writeOptions overlays non-empty flag values on the configured defaults.
func (rc *runContext) writeOptions(compression, mode string) (nbt.WriteOptions, error) {
	opts := rc.cfg.writeOptions()
	if compression != "" {
		c, err := nbt.ParseCompression(compression)
		if err != nil {
			return nbt.WriteOptions{}, err
		}
		opts.Compression = c
	}
	if mode != "" {
		m, err := nbt.ParseMode(mode)
		if err != nil {
			return nbt.WriteOptions{}, err
		}
		opts.Mode = m
	}
	return opts, nil
}
