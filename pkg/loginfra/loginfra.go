package loginfra

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"k8s.io/klog"
)

// VerbosityEnv sets the klog verbosity when -v is not given
const VerbosityEnv = "WEBDEPLOY_VERBOSITY"

func NewFlagSet() *flag.FlagSet {
	// See https://flowerinthenight.com/blog/2019/02/05/golang-cobra-klog
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)

	// Suppress usage flag.ErrHelp
	fs.SetOutput(ioutil.Discard)

	return fs
}

func Init() *flag.FlagSet {
	fs := NewFlagSet()

	fs = AddKlogFlags(fs)

	return Parse(fs, os.Args[1:])
}

// Parse picks the klog flags out of args. Flags it does not know are left to cobra.
func Parse(fs *flag.FlagSet, args []string) *flag.FlagSet {
	args = append([]string{}, args...)

	if err := fs.Parse(args); err != nil && err != flag.ErrHelp && !strings.Contains(err.Error(), "flag provided but not defined") {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	return fs
}

func AddKlogFlags(fs *flag.FlagSet) *flag.FlagSet {
	klog.InitFlags(fs)

	// Configure klog
	fs.Set("skip_headers", "true")

	v := os.Getenv(VerbosityEnv)
	if v != "" {
		// -v LEVEL must preceed the remaining args to be parsed by fs
		fmt.Fprintf(os.Stderr, "Setting log verbosity to %s\n", v)
		fs.Set("v", v)
	}

	return fs
}
