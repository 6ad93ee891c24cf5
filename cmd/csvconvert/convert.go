package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/JonMunkholm/csvconvert/internal/config"
	"github.com/JonMunkholm/csvconvert/internal/core"
)

// stdio is the file name meaning stdin or stdout.
const stdio = "-"

func runConvert(ctx context.Context, cfg *config.Config, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	mapping := fs.String("mapping", "", "mapping name in the mapping directory, or path to a mapping file")
	in := fs.String("in", stdio, "source file, - for stdin")
	out := fs.String("out", stdio, "target file, - for stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *mapping == "" || fs.NArg() > 0 {
		fmt.Fprintln(stderr, "convert: -mapping is required and no positional arguments are accepted")
		fs.Usage()
		return errUsage
	}

	def, err := resolveDefinition(cfg, *mapping)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	svc, err := newService(cfg, store, []*core.Definition{def})
	if err != nil {
		return err
	}

	req := core.ConvertRequest{
		Mapping:    def.Name,
		Source:     stdin,
		SourceName: "stdin",
		TargetName: "stdout",
	}

	if *in != stdio {
		f, err := os.Open(*in)
		if err != nil {
			return fmt.Errorf("open source: %w", err)
		}
		defer f.Close()

		req.Source = f
		req.SourceName = *in
		if info, err := f.Stat(); err == nil {
			req.SourceSize = info.Size()
		}
	}

	if *out == stdio {
		req.Target = stdout
		_, err = svc.Convert(ctx, req)
		return err
	}

	target, err := newAtomicFile(*out)
	if err != nil {
		return err
	}
	defer target.discard()

	req.Target = target
	req.TargetName = *out
	if _, err := svc.Convert(ctx, req); err != nil {
		return err
	}
	return target.commit()
}

// resolveDefinition loads ref as a mapping file when it looks like a path,
// otherwise looks it up by name in the mapping directory.
func resolveDefinition(cfg *config.Config, ref string) (*core.Definition, error) {
	loader := newLoader(cfg)

	ext := strings.ToLower(filepath.Ext(ref))
	if ext == ".yaml" || ext == ".yml" || strings.ContainsRune(ref, filepath.Separator) {
		return loader.Load(ref)
	}

	defs, err := loader.LoadDir(cfg.Convert.MappingDir)
	if err != nil {
		return nil, err
	}
	for _, def := range defs {
		if def.Name == ref {
			return def, nil
		}
	}
	return nil, fmt.Errorf("%w: %q in %s", core.ErrUnknownDefinition, ref, cfg.Convert.MappingDir)
}

// atomicFile writes to a temp file next to the target and renames it into
// place on commit, so a failed run never leaves a partial file behind.
type atomicFile struct {
	*os.File
	path string
	done bool
}

func newAtomicFile(path string) (*atomicFile, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create target: %w", err)
	}
	return &atomicFile{File: f, path: path}, nil
}

func (a *atomicFile) commit() error {
	if err := a.File.Close(); err != nil {
		return fmt.Errorf("close target: %w", err)
	}
	if err := os.Rename(a.File.Name(), a.path); err != nil {
		return fmt.Errorf("rename target: %w", err)
	}
	a.done = true
	return nil
}

func (a *atomicFile) discard() {
	if a.done {
		return
	}
	a.File.Close()
	os.Remove(a.File.Name())
}
