package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bstardust/photo-atlas/internal/exif"
	"github.com/bstardust/photo-atlas/pkg/common"
	"github.com/spf13/cobra"
)

func newDumpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file>...",
		Short: "Print every EXIF tag of the given files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, path := range args {
				if err := dumpFile(out, path); err != nil {
					fmt.Fprintf(out, "%s: %v\n", path, cause(err))
				}
			}
			return nil
		},
	}
}

// dumpFile prints the tags of one file sorted by name, each with its IFD
// marker (1/ for the thumbnail IFD, 0/ otherwise), its display value and its
// raw value
func dumpFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return common.NewIOError("open", path, err)
	}
	defer f.Close()

	fields, err := exif.DecodeAll(bufio.NewReader(f), path)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, path)
	for _, name := range fields.Names() {
		v := fields[name]
		ifd := "0/"
		if v.Thumbnail {
			ifd = "1/"
		}
		fmt.Fprintf(w, "  %s%s: %s\n", ifd, name, v.Display)
		fmt.Fprintf(w, "      %s\n", v.RawString())
	}
	return nil
}

// cause drops the path carried by the error, which the caller prints already
func cause(err error) error {
	var decodeErr *common.DecodeError
	if errors.As(err, &decodeErr) {
		return decodeErr.Err
	}
	var ioErr *common.IOError
	if errors.As(err, &ioErr) {
		return ioErr.Err
	}
	return err
}
