// Command mxlunzip lists or extracts the members of ZIP-based archives,
// including compressed music-notation (.mxl) documents.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	getopt "github.com/pborman/getopt/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jkindrix/mxl"
)

const version = "mxlunzip 1.0.0"

var (
	flagVersion   = false
	flagDebug     = false
	flagTrace     = false
	flagLogStderr = false

	flagList      = false
	flagExtract   = false
	flagMember    = ""
	flagOutputDir = "."
)

func init() {
	getopt.SetParameters("<archive> [<archive> ...]")

	getopt.FlagLong(&flagVersion, "version", 'V', "print version and exit")

	getopt.FlagLong(&flagDebug, "verbose", 'v', "enable debug logging")
	getopt.FlagLong(&flagTrace, "debug", 'D', "enable debug and trace logging")
	getopt.FlagLong(&flagLogStderr, "log-stderr", 'L', "log JSON to stderr")

	getopt.FlagLong(&flagList, "list", 'l', "list archive members without extracting").SetGroup("mode")
	getopt.FlagLong(&flagExtract, "extract", 'x', "extract archive members into the output directory").SetGroup("mode")
	getopt.FlagLong(&flagMember, "member", 'c', "write the named member to standard output").SetGroup("mode")
	getopt.FlagLong(&flagOutputDir, "output-dir", 'd', "directory to extract into")
}

func main() {
	getopt.Parse()

	if flagVersion {
		fmt.Println(strings.TrimSpace(version))
		os.Exit(0)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.DurationFieldUnit = time.Second
	zerolog.DurationFieldInteger = false
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if flagDebug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if flagTrace {
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}

	switch {
	case flagLogStderr:
		// do nothing

	default:
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	if getopt.NArgs() == 0 {
		getopt.PrintUsage(os.Stderr)
		os.Exit(2)
	}

	var errs *multierror.Error
	for _, path := range getopt.Args() {
		if err := processFile(path); err != nil {
			log.Logger.Error().
				Str("filename", path).
				Err(err).
				Msg("failed to process archive")
			errs = multierror.Append(errs, err)
		}
	}

	if errs.ErrorOrNil() != nil {
		os.Exit(1)
	}
}

func processFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if !mxl.IsMxl(raw) {
		return fmt.Errorf("%s: first four bytes are not the ZIP local file header signature", path)
	}

	var opts []mxl.Option
	if flagTrace {
		opts = append(opts, mxl.WithTracers(mxl.Log(log.Logger)))
	}

	members, err := mxl.Unzip(raw, opts...)
	if err != nil {
		return err
	}

	log.Logger.Debug().
		Str("filename", path).
		Int("numMembers", len(members)).
		Msg("archive extracted")

	switch {
	case flagList:
		for _, m := range members {
			fmt.Printf("%8d  %s\n", len(m.Data), m.Name)
		}
		return nil

	case flagMember != "":
		data, ok := members.Lookup(flagMember)
		if !ok {
			return fmt.Errorf("%s: no member named %q", path, flagMember)
		}
		_, err := os.Stdout.Write(data)
		return err

	default:
		return writeMembers(members)
	}
}

func writeMembers(members mxl.Members) error {
	var errs *multierror.Error
	for _, m := range members {
		if err := writeMember(m); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

func writeMember(m mxl.Member) error {
	name := filepath.Clean(filepath.FromSlash(m.Name))
	if name == "" || name == "." || strings.HasPrefix(name, "..") || filepath.IsAbs(name) {
		return fmt.Errorf("refusing to extract member with unsafe name %q", m.Name)
	}

	target := filepath.Join(flagOutputDir, name)
	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0o777); err != nil {
			return err
		}
	}

	if err := os.WriteFile(target, m.Data, 0o666); err != nil {
		return err
	}

	log.Logger.Info().
		Str("member", m.Name).
		Str("target", target).
		Int("numBytes", len(m.Data)).
		Msg("extracted")
	return nil
}
