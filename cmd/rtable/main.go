// Command rtable inspects table files.
//
//	rtable [-mmap] [-v] dump  FILE
//	rtable [-mmap] [-v] get   FILE KEY
//	rtable [-mmap] [-v] props FILE
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/bsm/rtable"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func main() {
	var (
		mmap    = flag.Bool("mmap", false, "map the whole file into memory")
		verbose = flag.Bool("v", false, "enable debug logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] dump|get|props FILE [KEY]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := newLogger(*verbose)
	defer func() { _ = logger.Sync() }()

	if flag.NArg() < 2 {
		flag.Usage()
		os.Exit(2)
	}

	mode := rtable.DirectAccess
	if *mmap {
		mode = rtable.MappedAccess
	}

	if err := run(os.Stdout, flag.Arg(0), flag.Arg(1), flag.Args()[2:], mode, logger); err != nil {
		logger.Fatal("command failed", zap.String("cmd", flag.Arg(0)), zap.Error(err))
	}
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func run(w io.Writer, cmd, fname string, args []string, mode rtable.AccessMode, logger *zap.Logger) error {
	f, err := os.Open(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	fs, err := f.Stat()
	if err != nil {
		return err
	}

	r, err := rtable.Open(f, fs.Size(), nil, &rtable.ReaderOptions{AccessMode: mode, Logger: logger})
	if err != nil {
		return err
	}
	defer r.Close()

	switch cmd {
	case "dump":
		return dump(w, r)
	case "get":
		if len(args) != 1 {
			return errors.Errorf("get requires a KEY argument")
		}
		val, err := r.Find([]byte(args[0]))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%q\n", val)
		return err
	case "props":
		p := r.Properties()
		_, err := fmt.Fprintf(w, "entries:        %d\ndata size:      %d\nraw key size:   %d\nraw value size: %d\ncomparer:       %s\n",
			p.NumEntries, p.DataSize, p.RawKeySize, p.RawValueSize, p.ComparerName)
		return err
	}
	return errors.Errorf("unknown command %q", cmd)
}

func dump(w io.Writer, r *rtable.Reader) error {
	iter := r.NewIterator(nil)
	defer iter.Release()

	for ok := iter.SeekToFirst(); ok; ok = iter.Next() {
		key, err := rtable.ParseInternalKey(iter.Key())
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\t%q\n", key, iter.Value()); err != nil {
			return err
		}
	}
	return iter.Err()
}
