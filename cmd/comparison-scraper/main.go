package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	comparison "github.com/kevinfar25/comparison-scraper"
	"github.com/kevinfar25/comparison-scraper/internal/log"
	"github.com/kevinfar25/comparison-scraper/pkg/capture"
)

const version = "0.1.0"

// newRunner is swapped out by tests to run without Chrome.
var newRunner = comparison.NewRunnerWithOptions

func newRootCmd() *cobra.Command {
	return buildRootCmd(&cliFlags{})
}

func buildRootCmd(f *cliFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comparison-scraper",
		Short: "Capture a reference site and a generated page side by side",
		Long: `comparison-scraper opens the reference site and a locally generated page in the
same browser, captures full-page and viewport screenshots of both at desktop and
mobile sizes under one timestamp, and writes a markdown checklist for reviewing
the differences.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			options, err := resolveOptions(cmd, f)
			if err != nil {
				return err
			}

			runner := newRunner(*options)
			summary, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}

			if summary.Generated.Err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s (generated screenshots missing)\n", summary.ReportPath)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", summary.ReportPath)
			return nil
		},
	}
	cmd.SetVersionTemplate("comparison-scraper {{.Version}}\n")

	addFlags(cmd, f)
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if interrupted(ctx) {
			log.Warn("Operation cancelled by user")
			stop()
			os.Exit(1)
		}

		handleRunError(err)
		stop()
		os.Exit(1)
	}
}

// interrupted reports whether ctx was cancelled by a signal rather than
// timing out.
func interrupted(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.Canceled)
}

func handleRunError(err error) {
	log.Errorf("Error during comparison process: %v", err)
	log.Debugf("Root cause: %s", unwrapError(err))
	if hint := hintFor(err); hint != "" {
		log.Warn(hint)
	}
}

func hintFor(err error) string {
	var navErr *capture.NavigationError
	isNav := errors.As(err, &navErr)

	switch {
	case isDNSError(err):
		return "DNS lookup failed: check the reference URL and your network connection."
	case isTimeoutError(err) && isNav && navErr.Target.Kind == capture.Remote:
		return "The reference site did not settle in time: try a longer --reference-timeout."
	case isTimeoutError(err):
		return "Timed out: try a longer --local-timeout or a faster --settle mode."
	case isNav && navErr.Target.Kind == capture.Local:
		return fmt.Sprintf("Make sure the %s file exists and is properly formatted.", filepath.Base(navErr.Target.Location))
	case isNav:
		return "Make sure the reference site is reachable from this machine."
	}
	return ""
}

func isDNSError(err error) bool {
	if err == nil {
		return false
	}

	errMessage := getFullErrorMessage(err)
	return strings.Contains(errMessage, "net::ERR_NAME_NOT_RESOLVED") ||
		strings.Contains(errMessage, "no such host")
}

func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errMessage := getFullErrorMessage(err)
	return strings.Contains(errMessage, "context deadline exceeded") ||
		strings.Contains(errMessage, "net::ERR_TIMED_OUT") ||
		strings.Contains(errMessage, "timeout")
}

func getFullErrorMessage(err error) string {
	var sb strings.Builder
	for err != nil {
		sb.WriteString(err.Error())
		err = errors.Unwrap(err)
		if err != nil {
			sb.WriteString(" | ")
		}
	}
	return sb.String()
}

func unwrapError(err error) string {
	rootErr := err
	for {
		unwrappedErr := errors.Unwrap(rootErr)
		if unwrappedErr == nil {
			break
		}
		rootErr = unwrappedErr
	}
	return rootErr.Error()
}
