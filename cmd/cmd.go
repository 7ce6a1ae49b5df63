package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/twpayne/go-vfs"
	"github.com/variantdev/webdeploy/pkg/loginfra"
	"github.com/variantdev/webdeploy/pkg/shell"
	"github.com/variantdev/webdeploy/pkg/vhttpget"
	"github.com/variantdev/webdeploy/pkg/webdeploy"
	"k8s.io/klog/klogr"
)

// exitError ends the process with status without logging anything more.
type exitError struct {
	status int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.status)
}

type app struct {
	fs     vfs.FS
	getter vhttpget.Getter
	logger logr.Logger
	host   webdeploy.HostLogger
	out    io.Writer

	// exec overrides how msdeploy is run
	exec shell.Exec
}

func Execute() {
	log := klogr.New()

	a := &app{
		fs:     vfs.HostOSFS,
		getter: vhttpget.New(),
		logger: log,
		host:   webdeploy.KlogHost{},
		out:    os.Stdout,
	}

	cmd := a.newRootCmd()

	fs := loginfra.Init()

	// Hand parsing of remaining flags to pflags and cobra
	pflag.CommandLine.AddGoFlagSet(fs)

	if err := cmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.status)
		}
		log.Error(err, err.Error())
		os.Exit(1)
	}
}

func (a *app) newRootCmd() *cobra.Command {
	eng := &engineFlags{}

	cmd := &cobra.Command{
		Use:   "webdeploy",
		Short: "Deploy a directory to an IIS web site with Web Deploy",
	}

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	eng.register(cmd.PersistentFlags())

	cmd.AddCommand(
		a.newSyncCmd(eng),
		a.newRulesCmd(eng),
		a.newTemplateCmd(),
	)

	return cmd
}

func (a *app) newRulesCmd(eng *engineFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the rules the deployment engine provides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.newEngine(eng.options())
			if err != nil {
				return err
			}

			rules, err := e.AvailableRules()
			if err != nil {
				return err
			}

			for _, r := range rules {
				fmt.Fprintf(a.out, "%s\t%s\n", r.Name, r.Description)
			}

			return nil
		},
	}
}

func (a *app) newTemplateCmd() *cobra.Command {
	var (
		url     string
		headers map[string]string
	)

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Print the offline page placed while deploying",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			html := webdeploy.DefaultAppOfflineTemplate()

			if url != "" {
				var err error
				html, err = a.fetchTemplate(url, headers)
				if err != nil {
					return err
				}
			}

			fmt.Fprint(a.out, html)

			return nil
		},
	}

	cmd.Flags().StringVar(&url, "app-offline-template-url", "", "Fetch the offline page from this URL instead of printing the bundled one")
	cmd.Flags().StringToStringVar(&headers, "app-offline-template-header", nil, "HTTP header to send when fetching the offline page, as NAME=VALUE")

	return cmd
}

func (a *app) fetchTemplate(url string, headers map[string]string) (string, error) {
	var opts []vhttpget.Option
	for k, v := range headers {
		opts = append(opts, vhttpget.Header(k, v))
	}

	html, err := a.getter.DoRequest(url, opts...)
	if err != nil {
		return "", fmt.Errorf("fetching offline page template: %w", err)
	}

	a.logger.V(1).Info("fetched offline page template", "url", url, "bytes", len(html))

	return html, nil
}
