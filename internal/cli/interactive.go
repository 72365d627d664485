package cli

import (
	"errors"
	"io"

	"github.com/manifoldco/promptui"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// promptConfirm asks label as a y/N question on the command's streams.
// Answering anything but yes is a refusal, not an error.
func promptConfirm(cmd *cobra.Command, label string) (bool, error) {
	p := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Stdin:     io.NopCloser(cmd.InOrStdin()),
		Stdout:    nopWriteCloser{cmd.ErrOrStderr()},
	}
	if _, err := p.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// confirmed skips the question when --yes was given.
func confirmed(cmd *cobra.Command, app *App, yes bool, label string) (bool, error) {
	if yes {
		return true, nil
	}
	return app.confirm(cmd, label)
}

// newCountBar reports per-item progress on stderr.
func newCountBar(cmd *cobra.Command, total int, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

// newBytesBar reports transferred bytes on stderr.
func newBytesBar(cmd *cobra.Command, total int64, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowBytes(true),
		progressbar.OptionClearOnFinish(),
	)
}
