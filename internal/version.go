package internal

import (
	"errors"
	"fmt"
	"io"
	"runtime/debug"

	"github.com/baalimago/charadex/internal/utils"
)

// Set with buildflag if built in pipeline and not using go install
var (
	BuildVersion  = ""
	BuildChecksum = ""
)

func printVersion(w io.Writer) error {
	if BuildVersion != "" {
		fmt.Fprintln(w, "version: "+BuildVersion)
		if BuildChecksum != "" {
			fmt.Fprintln(w, "checksum: "+BuildChecksum)
		}
		return utils.ErrUserInitiatedExit
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return errors.New("failed to read build info")
	}
	fmt.Fprintf(w, "version: %v, go version: %v\n", bi.Main.Version, bi.GoVersion)
	return utils.ErrUserInitiatedExit
}
