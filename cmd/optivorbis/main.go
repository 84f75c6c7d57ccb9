// Command optivorbis losslessly re-encodes an Ogg Vorbis I file to a
// smaller equivalent.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	optivorbis "github.com/optivorbis/optivorbis-go"
	"github.com/optivorbis/optivorbis-go/vorbis"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "optivorbis:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("optivorbis", flag.ExitOnError)
	var (
		vendorAction  = fs.String("vendor-string", "copy", "vendor string handling: copy, replace, append-tag, append-short-tag, empty")
		commentAction = fs.String("comments", "copy", "comment field handling: copy, delete")
		randomize     = fs.Bool("randomize-serials", true, "assign fresh random serial numbers to output streams")
		ignoreOffset  = fs.Bool("ignore-start-offset", false, "leave the start sample offset out of output granule positions")
		requireVorbis = fs.Bool("require-vorbis", true, "fail if the input has no Vorbis logical bitstream")
		verbose       = fs.Bool("v", false, "log non-fatal warnings encountered while remuxing")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.Errorf("usage: optivorbis [flags] <input.ogg> <output.ogg>")
	}
	inputPath, outputPath := fs.Arg(0), fs.Arg(1)

	vendor, err := parseVendorStringAction(*vendorAction)
	if err != nil {
		return errors.Wrap(err, "invalid -vendor-string")
	}
	comments, err := parseCommentFieldsAction(*commentAction)
	if err != nil {
		return errors.Wrap(err, "invalid -comments")
	}

	logger := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return errors.Wrap(err, "constructing logger")
		}
		logger = l
	}
	defer logger.Sync() //nolint:errcheck

	in, err := os.Open(inputPath)
	if err != nil {
		return errors.Wrap(err, "opening input")
	}
	defer in.Close()

	out := os.Stdout
	if outputPath != "-" {
		out, err = os.Create(outputPath)
		if err != nil {
			return errors.Wrap(err, "creating output")
		}
	}

	settings := optivorbis.NewSettings(
		optivorbis.WithVendorStringAction(vendor),
		optivorbis.WithCommentFieldsAction(comments),
		optivorbis.WithRandomizeStreamSerials(*randomize),
		optivorbis.WithIgnoreStartSampleOffset(*ignoreOffset),
		optivorbis.WithErrorOnNoVorbisStreams(*requireVorbis),
		optivorbis.WithLogger(logger),
	)

	remuxErr := optivorbis.Remux(context.Background(), in, out, settings)
	if outputPath != "-" {
		if closeErr := out.Close(); remuxErr == nil {
			remuxErr = closeErr
		}
	}
	if remuxErr != nil {
		if outputPath != "-" {
			os.Remove(outputPath)
		}
		return errors.Wrap(remuxErr, "remuxing")
	}
	return nil
}

func parseVendorStringAction(s string) (vorbis.VendorStringAction, error) {
	switch s {
	case "copy":
		return vorbis.VendorStringCopy, nil
	case "replace":
		return vorbis.VendorStringReplace, nil
	case "append-tag":
		return vorbis.VendorStringAppendTag, nil
	case "append-short-tag":
		return vorbis.VendorStringAppendShortTag, nil
	case "empty":
		return vorbis.VendorStringEmpty, nil
	default:
		return 0, errors.Errorf("unknown vendor string action %q", s)
	}
}

func parseCommentFieldsAction(s string) (vorbis.CommentFieldsAction, error) {
	switch s {
	case "copy":
		return vorbis.CommentFieldsCopy, nil
	case "delete":
		return vorbis.CommentFieldsDelete, nil
	default:
		return 0, errors.Errorf("unknown comment fields action %q", s)
	}
}
