package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/op/go-logging"

	"github.com/chronos-tachyon/huffpack"
)

var log = logging.MustGetLogger("huffpack/cmd")

const progName = "huffpack"
const usageMessageRaw = `
Usage: huffpack [OPTIONS] MODE INPUT OUTPUT

Modes (matched by first letter, any case):
  e, encode
	Compress INPUT into OUTPUT.  OUTPUT must be a regular
	file, since its first two bytes are rewritten last.
  d, decode
	Decompress the artifact INPUT into OUTPUT.

Options:
  --buffer N
	Use N-byte stream buffers (default $buffer).
  --quiet, -q
	Do not print the size reduction after encoding.
  --debug, -d
	Log every stage, including the full code table.
`

type mode int

const (
	modeNone mode = iota
	modeEncode
	modeDecode
)

// parseMode matches MODE case-insensitively on its first letter.
func parseMode(arg string) mode {
	switch {
	case strings.HasPrefix(strings.ToUpper(arg), "E"):
		return modeEncode
	case strings.HasPrefix(strings.ToUpper(arg), "D"):
		return modeDecode
	default:
		return modeNone
	}
}

func reductionMessage(stats huffpack.Stats) string {
	return fmt.Sprintf("Reduced file size by %f%%\n", stats.Reduction())
}

// exitCode picks a sysexits(3) status for err.
func exitCode(err error) int {
	switch huffpack.KindOf(err) {
	case huffpack.KindIO:
		return 74
	case huffpack.KindEmptyInput, huffpack.KindCodeTooLong,
		huffpack.KindMalformedHeader, huffpack.KindUnexpectedEnd, huffpack.KindInvalidCode:
		return 65
	default:
		return 1
	}
}

type nullWriter struct{}

func (n *nullWriter) Write(p []byte) (int, error) {
	return len(p), nil
}

var ourFlags *flag.FlagSet

func usageMessage() string {
	template := strings.TrimLeft(usageMessageRaw, "\n")
	replacements := []string{
		"$buffer", fmt.Sprint(huffpack.DefaultBufferSize),
	}
	return strings.NewReplacer(replacements...).Replace(template)
}

func usageErrorf(detailFmt string, detailArgs ...interface{}) {
	detail := fmt.Sprintf(detailFmt, detailArgs...)
	fmt.Fprintf(os.Stderr, "%s: %s\n%s", progName, detail, usageMessage())
	os.Exit(64)
}

func exitError(err error) {
	log.Debugf("%+v", err)
	fmt.Fprintf(os.Stderr, "%s: %s\n", progName, err.Error())
	os.Exit(exitCode(err))
}

var leveledLogBackend logging.LeveledBackend

func startLogging() {
	backend := logging.NewLogBackend(os.Stderr, progName+": ", 0)
	formatSpec := "%{level:6s} %{module:-14s} | %{message}"
	formatter := logging.MustStringFormatter(formatSpec)
	formatted := logging.NewBackendFormatter(backend, formatter)
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(logging.INFO, "")
	logging.SetBackend(leveled)
	leveledLogBackend = leveled
}

func main() {
	startLogging()

	ourFlags = flag.NewFlagSet(progName, flag.ContinueOnError)
	ourFlags.Usage = func() {}
	ourFlags.SetOutput(&nullWriter{})

	var debugLogging bool
	var quiet bool
	var bufferSize int
	ourFlags.BoolVar(&debugLogging, "debug", false, "")
	ourFlags.BoolVar(&debugLogging, "d", false, "")
	ourFlags.BoolVar(&quiet, "quiet", false, "")
	ourFlags.BoolVar(&quiet, "q", false, "")
	ourFlags.IntVar(&bufferSize, "buffer", huffpack.DefaultBufferSize, "")

	argErr := ourFlags.Parse(os.Args[1:])
	if argErr == flag.ErrHelp {
		io.WriteString(os.Stdout, usageMessage())
		os.Exit(0)
	} else if argErr != nil {
		usageErrorf("%s", argErr.Error())
	}

	if debugLogging {
		leveledLogBackend.SetLevel(logging.DEBUG, "")
	}

	if ourFlags.NArg() != 3 {
		usageErrorf("expected 3 arguments: MODE INPUT OUTPUT, got %d", ourFlags.NArg())
	}
	modeArg, inPath, outPath := ourFlags.Arg(0), ourFlags.Arg(1), ourFlags.Arg(2)
	opts := &huffpack.Options{BufferSize: bufferSize}

	switch parseMode(modeArg) {
	case modeEncode:
		log.Debugf("encoding %s into %s", inPath, outPath)
		stats, err := huffpack.EncodeFile(inPath, outPath, opts)
		if err != nil {
			exitError(err)
		}
		log.Debugf("%d bytes → %d bytes, %d codes", stats.InputBytes, stats.OutputBytes, stats.NumCodes)
		if !quiet {
			io.WriteString(os.Stdout, reductionMessage(stats))
		}

	case modeDecode:
		log.Debugf("decoding %s into %s", inPath, outPath)
		stats, err := huffpack.DecodeFile(inPath, outPath, opts)
		if err != nil {
			exitError(err)
		}
		log.Debugf("%d bytes → %d bytes", stats.InputBytes, stats.OutputBytes)

	default:
		usageErrorf("bad mode \"%s\"", modeArg)
	}
}
