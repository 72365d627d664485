package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"filedesk-cli/internal/api"
	appstate "filedesk-cli/internal/app"

	"github.com/spf13/cobra"
)

func newFilesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "List, read, write and delete files on the service",
	}
	cmd.AddCommand(newFilesListCmd(app))
	cmd.AddCommand(newFilesShowCmd(app))
	cmd.AddCommand(newFilesCreateCmd(app))
	cmd.AddCommand(newFilesSaveCmd(app))
	cmd.AddCommand(newFilesEditCmd(app))
	cmd.AddCommand(newFilesDeleteCmd(app))
	cmd.AddCommand(newFilesDeleteAllCmd(app))
	return cmd
}

func newFilesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List files in server order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.client()
			if err != nil {
				return err
			}
			resp, err := c.ListFiles(cmd.Context())
			if err := checkResp("list files", resp.Response, err); err != nil {
				return err
			}
			files := resp.Files
			if files == nil {
				files = []string{}
			}
			return writeOut(cmd, app, map[string]any{"data": files})
		},
	}
}

func newFilesShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a file's content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.client()
			if err != nil {
				return err
			}
			resp, err := c.GetFile(cmd.Context(), args[0])
			if err := checkResp("load file", resp.Response, err); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"filename": args[0],
				"content":  resp.Content,
			}})
		},
	}
}

func newFilesCreateCmd(app *App) *cobra.Command {
	var content, fromFile string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a file (empty unless --content or --from-file is given)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return errEmptyName
			}
			if fromFile != "" {
				b, err := os.ReadFile(fromFile)
				if err != nil {
					return err
				}
				content = string(b)
			}
			c, err := app.client()
			if err != nil {
				return err
			}
			resp, err := c.Create(cmd.Context(), name, content)
			if err := checkResp("create", resp, err); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"filename": name,
				"message":  resp.Message,
			}})
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "Initial content")
	cmd.Flags().StringVar(&fromFile, "from-file", "", "Read the initial content from a local file")
	cmd.MarkFlagsMutuallyExclusive("content", "from-file")
	return cmd
}

func newFilesSaveCmd(app *App) *cobra.Command {
	var content, fromFile string
	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Overwrite a file with --content, --from-file or stdin",
		Long:  "Overwrite a file. There is no version check: the last writer wins.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := content
			switch {
			case fromFile != "":
				b, err := os.ReadFile(fromFile)
				if err != nil {
					return err
				}
				body = string(b)
			case !cmd.Flags().Changed("content"):
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				body = string(b)
			}
			c, err := app.client()
			if err != nil {
				return err
			}
			resp, err := c.Save(cmd.Context(), args[0], body)
			if err := checkResp("save", resp.Response, err); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"filename": args[0],
				"bytes":    len(body),
			}})
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "New content")
	cmd.Flags().StringVar(&fromFile, "from-file", "", "Read the new content from a local file")
	cmd.MarkFlagsMutuallyExclusive("content", "from-file")
	return cmd
}

func newFilesEditCmd(app *App) *cobra.Command {
	var prompt string
	cmd := &cobra.Command{
		Use:   "edit <name> --prompt <instruction>",
		Short: "Rewrite a file with the service's AI model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(prompt) == "" {
				return errors.New("please enter an edit prompt")
			}
			c, err := app.client()
			if err != nil {
				return err
			}
			h, err := c.Health(cmd.Context())
			if err != nil || !h.AIAvailable() {
				return errors.New("AI service is not available")
			}
			resp, err := c.EditAI(cmd.Context(), args[0], prompt)
			if err := checkResp("AI edit", resp.Response, err); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"filename": args[0],
				"model":    h.Model,
				"content":  resp.NewContent,
			}})
		},
	}
	cmd.Flags().StringVar(&prompt, "prompt", "", "What to change")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}

func newFilesDeleteCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Delete a file",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			ok, err := confirmed(cmd, app, yes, `Are you sure you want to delete "`+name+`"`)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.ErrOrStderr(), "canceled")
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": []string{}}})
			}
			c, err := app.client()
			if err != nil {
				return err
			}
			resp, err := c.Delete(cmd.Context(), name)
			if err := checkResp("delete", resp, err); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": []string{name}}})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

type deleteFailure struct {
	Filename string `json:"filename"`
	Message  string `json:"message"`
}

func newFilesDeleteAllCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-all",
		Short: "Delete every file, one request at a time",
		Long: strings.TrimSpace(`
Delete every file currently listed by the service. Requests are sent one at a
time. A file the service refuses to delete is reported and skipped; a
connection failure stops the batch.`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.client()
			if err != nil {
				return err
			}
			list, err := c.ListFiles(cmd.Context())
			if err := checkResp("list files", list.Response, err); err != nil {
				return err
			}
			names := list.Files
			if len(names) == 0 {
				return errors.New("no files to delete")
			}
			label := "Are you sure you want to delete all " + appstate.Pluralize(len(names), "file", "files") + "? This action cannot be undone"
			ok, err := confirmed(cmd, app, yes, label)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.ErrOrStderr(), "canceled")
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": []string{}, "failed": []deleteFailure{}}})
			}

			bar := newCountBar(cmd, len(names), "Deleting")
			deleted := []string{}
			failed := []deleteFailure{}
			_, err = c.DeleteEach(cmd.Context(), names, func(name string, resp api.Response) {
				_ = bar.Add(1)
				if resp.Success {
					deleted = append(deleted, name)
					return
				}
				failed = append(failed, deleteFailure{Filename: name, Message: resp.Message})
			})
			_ = bar.Finish()
			if err != nil {
				return fmt.Errorf("deleting files: %w", err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": deleted, "failed": failed}})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
