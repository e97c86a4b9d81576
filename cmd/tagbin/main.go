// tagbin converts between the tagged binary format and JSON, CBOR or
// MessagePack, prints the diagnostic notation of a tagged value, and
// reports encoded sizes.
//
// Usage:
//
//	tagbin encode --from json|cbor|msgpack [--compact] [-i file] [-o file]
//	tagbin decode --to diag|json|cbor|msgpack [-i file] [-o file]
//	tagbin size   [--compact] [-i file]
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/tagbin"
	"github.com/unkn0wn-root/tagbin/transcode"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type ioFlags struct {
	in, out string
	verbose bool
}

func (f *ioFlags) add(fs *pflag.FlagSet) {
	fs.StringVarP(&f.in, "in", "i", "-", "input file (- for stdin)")
	fs.StringVarP(&f.out, "out", "o", "-", "output file (- for stdout)")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log progress to stderr")
}

func (f *ioFlags) read(stdin io.Reader) ([]byte, error) {
	if f.in == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(f.in)
}

func (f *ioFlags) write(stdout io.Writer, b []byte) error {
	if f.out == "-" {
		_, err := stdout.Write(b)
		return err
	}
	return os.WriteFile(f.out, b, 0o644)
}

func (f *ioFlags) logger(stderr io.Writer) *zap.Logger {
	if !f.verbose {
		return zap.NewNop()
	}
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(stderr), zap.DebugLevel))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stderr)
		return errors.New("missing command")
	}
	switch args[0] {
	case "encode":
		return runEncode(args[1:], stdin, stdout, stderr)
	case "decode":
		return runDecode(args[1:], stdin, stdout, stderr)
	case "size":
		return runSize(args[1:], stdin, stdout, stderr)
	case "-h", "--help", "help":
		usage(stdout)
		return nil
	}
	usage(stderr)
	return fmt.Errorf("unknown command %q", args[0])
}

func usage(w io.Writer) {
	fmt.Fprint(w, `Usage:
  tagbin encode --from json|cbor|msgpack [--compact] [-i file] [-o file]
  tagbin decode --to diag|json|cbor|msgpack [-i file] [-o file]
  tagbin size   [--compact] [-i file]
`)
}

func newFlagSet(name string, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func runEncode(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var (
		f       ioFlags
		from    string
		compact bool
	)
	fs := newFlagSet("encode", stderr)
	f.add(fs)
	fs.StringVar(&from, "from", "json", "source format: json, cbor or msgpack")
	fs.BoolVar(&compact, "compact", false, "store integers in the narrowest width that holds them")
	if err := fs.Parse(args); err != nil {
		return err
	}
	log := f.logger(stderr)
	defer log.Sync()

	src, err := f.read(stdin)
	if err != nil {
		return err
	}
	var conv func([]byte, ...tagbin.Option) ([]byte, error)
	switch from {
	case "json":
		conv = transcode.FromJSON
	case "cbor":
		conv = transcode.FromCBOR
	case "msgpack":
		conv = transcode.FromMsgpack
	default:
		return fmt.Errorf("unknown source format %q", from)
	}
	out, err := conv(src, tagbin.WithCompact(compact))
	if err != nil {
		return fmt.Errorf("encode from %s: %w", from, err)
	}
	log.Debug("encoded",
		zap.String("from", from),
		zap.Bool("compact", compact),
		zap.Int("in", len(src)),
		zap.Int("out", len(out)))
	return f.write(stdout, out)
}

func runDecode(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var (
		f  ioFlags
		to string
	)
	fs := newFlagSet("decode", stderr)
	f.add(fs)
	fs.StringVar(&to, "to", "diag", "target format: diag, json, cbor or msgpack")
	if err := fs.Parse(args); err != nil {
		return err
	}
	log := f.logger(stderr)
	defer log.Sync()

	src, err := f.read(stdin)
	if err != nil {
		return err
	}
	var out []byte
	switch to {
	case "diag":
		var s string
		s, err = tagbin.Diagnose(src)
		out = []byte(s + "\n")
	case "json":
		out, err = transcode.ToJSON(src)
		if err == nil {
			out = append(out, '\n')
		}
	case "cbor":
		out, err = transcode.ToCBOR(src)
	case "msgpack":
		out, err = transcode.ToMsgpack(src)
	default:
		return fmt.Errorf("unknown target format %q", to)
	}
	if err != nil {
		return fmt.Errorf("decode to %s: %w", to, err)
	}
	log.Debug("decoded", zap.String("to", to), zap.Int("in", len(src)), zap.Int("out", len(out)))
	return f.write(stdout, out)
}

func runSize(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var (
		f       ioFlags
		compact bool
	)
	fs := newFlagSet("size", stderr)
	f.add(fs)
	fs.BoolVar(&compact, "compact", false, "measure with integer compaction")
	if err := fs.Parse(args); err != nil {
		return err
	}
	log := f.logger(stderr)
	defer log.Sync()

	src, err := f.read(stdin)
	if err != nil {
		return err
	}
	var v tagbin.Value
	if err := tagbin.Unmarshal(src, &v); err != nil {
		return fmt.Errorf("size: %w", err)
	}
	n, err := tagbin.SerializedSize(v, tagbin.WithCompact(compact))
	if err != nil {
		return fmt.Errorf("size: %w", err)
	}
	log.Debug("measured", zap.Int("in", len(src)), zap.Int("size", n), zap.Bool("compact", compact))
	_, err = fmt.Fprintf(stdout, "%d\n", n)
	return err
}
