package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"filedesk-cli/internal/api"
	"filedesk-cli/internal/store"

	"github.com/spf13/cobra"
)

func newUploadCmd(app *App) *cobra.Command {
	var include, exclude []string
	cmd := &cobra.Command{
		Use:   "upload <path>...",
		Short: "Upload files and folders in one request",
		Long: `Upload files in one multipart request. Folders are expanded recursively;
--include/--exclude take doublestar globs matched against paths relative to
each folder and replace the configured filters when given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := app.filter()
			if cmd.Flags().Changed("include") {
				filter.Include = include
			}
			if cmd.Flags().Changed("exclude") {
				filter.Exclude = exclude
			}
			paths, err := store.ExpandPaths(args, filter)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return errors.New("please select files to upload")
			}

			c, err := app.client()
			if err != nil {
				return err
			}
			total := store.TotalSize(paths)
			bar := newBytesBar(cmd, total, fmt.Sprintf("Uploading %d file(s)", len(paths)))
			files := make([]api.UploadFile, 0, len(paths))
			for _, p := range paths {
				files = append(files, api.UploadFile{
					Name: filepath.Base(p),
					Body: io.TeeReader(&lazyFile{path: p}, bar),
				})
			}
			resp, err := c.Upload(cmd.Context(), files)
			_ = bar.Finish()
			if err := checkResp("upload", resp.Response, err); err != nil {
				return err
			}
			uploaded := resp.Files
			if uploaded == nil {
				uploaded = []string{}
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"uploaded": uploaded,
				"bytes":    total,
				"size":     store.HumanSize(total),
			}})
		},
	}
	cmd.Flags().StringSliceVar(&include, "include", nil, "Only upload folder entries matching these globs")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Skip folder entries matching these globs")
	return cmd
}

// lazyFile opens path on first read and closes it at EOF, so a large
// selection never holds more than one descriptor.
type lazyFile struct {
	path string
	f    *os.File
	done bool
}

func (l *lazyFile) Read(p []byte) (int, error) {
	if l.done {
		return 0, io.EOF
	}
	if l.f == nil {
		f, err := os.Open(l.path)
		if err != nil {
			return 0, err
		}
		l.f = f
	}
	n, err := l.f.Read(p)
	if err != nil {
		_ = l.f.Close()
		l.done = true
	}
	return n, err
}

type downloaded struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Bytes    int64  `json:"bytes"`
	Size     string `json:"size"`
}

func newDownloadCmd(app *App) *cobra.Command {
	var all bool
	var out string
	cmd := &cobra.Command{
		Use:   "download [<name>...]",
		Short: "Download files, or every file as a ZIP archive with --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return errors.New("name a file to download, or pass --all")
			}
			if all && len(args) > 0 {
				return errors.New("--all does not take file names")
			}
			dir := app.cfg.DownloadDir
			if out != "" {
				dir = out
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			d := store.Downloads{Dir: dir}

			c, err := app.client()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			got := []downloaded{}
			if all {
				path, n, err := d.Save(api.ArchiveName, func(w io.Writer) (int64, error) {
					return c.DownloadAll(ctx, w)
				})
				if err != nil {
					if api.IsStatus(err) {
						return errors.New("download failed")
					}
					return fmt.Errorf("error downloading files: %s", api.Describe(err))
				}
				got = append(got, downloaded{Filename: api.ArchiveName, Path: path, Bytes: n, Size: store.HumanSize(n)})
				return writeOut(cmd, app, map[string]any{"data": got})
			}

			for _, name := range args {
				path, n, err := d.Save(name, func(w io.Writer) (int64, error) {
					return c.Download(ctx, name, w)
				})
				if err != nil {
					return downloadError{name: name, err: err}
				}
				got = append(got, downloaded{Filename: name, Path: path, Bytes: n, Size: store.HumanSize(n)})
			}
			return writeOut(cmd, app, map[string]any{"data": got})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Download every file as "+api.ArchiveName)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Directory to write to (default: download_dir)")
	return cmd
}
