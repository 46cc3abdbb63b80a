package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/gallerist/internal/errors"
	"github.com/hpungsan/gallerist/internal/journal"
	"github.com/hpungsan/gallerist/internal/logging"
	"github.com/hpungsan/gallerist/internal/manifest"
	"github.com/hpungsan/gallerist/internal/ops"
	"github.com/hpungsan/gallerist/internal/watch"
	"github.com/hpungsan/gallerist/internal/web"
)

// newCLIApp creates the CLI application with all commands.
// a may be nil when only help or version output is needed.
func newCLIApp(a *app) *cli.App {
	cliApp := &cli.App{
		Name:    "gallerist",
		Usage:   "Admin console for a static photo gallery",
		Version: Version,
		Commands: []*cli.Command{
			serveCmd(a),
			watchCmd(a),
			contentCmd(a),
			regenerateCmd(a),
			checkCmd(a),
			pageCreateCmd(a),
			pageDeleteCmd(a),
			pageRenameCmd(a),
			reorderCmd(a),
			photoAddCmd(a),
			photoUploadCmd(a),
			photoRemoveCmd(a),
			photoUpdateCmd(a),
			photoRotateCmd(a),
			settingsCmd(a),
			homeCmd(a),
			publishCmd(a),
			historyCmd(a),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	cliApp.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return cliApp
}

// serveCmd creates the serve command.
func serveCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the admin console and gallery preview",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address (defaults to bind:port from config)"},
			&cli.BoolFlag{Name: "watch", Usage: "Regenerate the site when the manifest is edited by hand"},
		},
		Action: func(c *cli.Context) error {
			addr := c.String("addr")
			if addr == "" {
				addr = a.cfg.Addr()
			}

			ctx, cancel := context.WithCancel(c.Context)
			defer cancel()

			if c.Bool("watch") {
				w, err := a.newWatcher()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				go func() { _ = w.Run(ctx) }()
			}

			quit := make(chan struct{})
			srv := web.NewServer(a.svc, addr, web.Options{
				Version:  Version,
				SiteName: a.cfg.SiteName,
				Metrics:  a.metrics.Handler(),
				Quit:     quit,
			})
			if err := web.Run(ctx, srv, quit); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// watchCmd creates the watch command.
func watchCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Regenerate the site whenever the manifest is edited by hand",
		Action: func(c *cli.Context) error {
			w, err := a.newWatcher()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			logging.FromContext(ctx).Info().Str("manifest", a.svc.Store().ManifestPath()).Msg("watching manifest")
			return w.Run(ctx)
		},
	}
}

func (a *app) newWatcher() (*watch.Watcher, error) {
	st := a.svc.Store()
	return watch.New(st.ManifestPath(), a.svc, watch.Options{
		Debounce: time.Duration(a.cfg.WatchDebounceMS) * time.Millisecond,
		Own:      st,
	})
}

// contentCmd creates the content command.
func contentCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "content",
		Usage: "Print the content model; with --stdin, save an edited model read from stdin",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "stdin", Usage: "Read an edited content model (JSON) from stdin and save it"},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("stdin") {
				output, err := a.svc.GetContent(c.Context)
				return printResult(c, output, err)
			}
			var input ops.SaveContentInput
			if err := json.NewDecoder(c.App.Reader).Decode(&input); err != nil {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("invalid JSON on stdin: %v", err)))
			}
			output, err := a.svc.SaveContent(c.Context, input)
			return printResult(c, output, err)
		},
	}
}

// regenerateCmd creates the regenerate command.
func regenerateCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "regenerate",
		Usage: "Rebuild labels and navigation from the manifest",
		Action: func(c *cli.Context) error {
			output, err := a.svc.Regenerate(c.Context)
			return printResult(c, output, err)
		},
	}
}

// checkCmd creates the check command.
func checkCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Report differences between the manifest and the files on disk",
		Action: func(c *cli.Context) error {
			output, err := a.svc.Check(c.Context)
			if err != nil {
				return outputError(err)
			}
			if err := outputJSON(c.App.Writer, output); err != nil {
				return err
			}
			if !output.OK {
				return cli.Exit(fmt.Sprintf("%d issue(s) found", len(output.Issues)), 1)
			}
			return nil
		},
	}
}

// pageCreateCmd creates the page-create command.
func pageCreateCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "page-create",
		Usage:     "Create an empty page",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Value: string(manifest.LayoutMasonry), Usage: "Layout: masonry|single"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("page-create takes exactly one name"))
			}
			output, err := a.svc.CreatePage(c.Context, ops.CreatePageInput{
				Name:   c.Args().First(),
				Layout: manifest.Layout(c.String("type")),
			})
			return printResult(c, output, err)
		},
	}
}

// pageDeleteCmd creates the page-delete command.
func pageDeleteCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "page-delete",
		Usage:     "Delete a page with its directory and photos",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("page-delete takes exactly one id"))
			}
			output, err := a.svc.DeletePage(c.Context, ops.DeletePageInput{ID: c.Args().First()})
			return printResult(c, output, err)
		},
	}
}

// pageRenameCmd creates the page-rename command.
func pageRenameCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "page-rename",
		Usage:     "Change a page's display name",
		ArgsUsage: "<id> <name>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return outputError(errors.NewInvalidRequest("page-rename takes an id and a name"))
			}
			output, err := a.svc.RenamePage(c.Context, ops.RenamePageInput{
				ID:   c.Args().Get(0),
				Name: c.Args().Get(1),
			})
			return printResult(c, output, err)
		},
	}
}

// reorderCmd creates the reorder command.
func reorderCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "reorder",
		Usage:     "Move the named pages to the front of the navigation",
		ArgsUsage: "<id>...",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("reorder needs at least one page id"))
			}
			output, err := a.svc.Reorder(c.Context, ops.ReorderInput{IDs: c.Args().Slice()})
			return printResult(c, output, err)
		},
	}
}

// photoAddCmd creates the photo-add command.
func photoAddCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "photo-add",
		Usage:     "List a file already in a page's photo directory",
		ArgsUsage: "<page> <filename>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return outputError(errors.NewInvalidRequest("photo-add takes a page id and a filename"))
			}
			output, err := a.svc.AddPhoto(c.Context, ops.AddPhotoInput{
				PageID:   c.Args().Get(0),
				Filename: c.Args().Get(1),
			})
			return printResult(c, output, err)
		},
	}
}

// photoUploadCmd creates the photo-upload command.
func photoUploadCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "photo-upload",
		Usage:     "Resize image files and add them to a page",
		ArgsUsage: "<page> <file>...",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return outputError(errors.NewInvalidRequest("photo-upload takes a page id and at least one file"))
			}
			paths := c.Args().Slice()[1:]
			files := make([]ops.UploadFile, 0, len(paths))
			for _, p := range paths {
				data, err := os.ReadFile(p)
				if err != nil {
					return outputError(errors.NewInvalidRequest(fmt.Sprintf("read %s: %v", p, err)))
				}
				files = append(files, ops.UploadFile{Name: filepath.Base(p), Data: data})
			}
			output, err := a.svc.UploadPhotos(c.Context, ops.UploadPhotosInput{
				PageID: c.Args().First(),
				Files:  files,
			})
			return printResult(c, output, err)
		},
	}
}

// photoRemoveCmd creates the photo-remove command.
func photoRemoveCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "photo-remove",
		Usage:     "Unlist a photo and delete its file",
		ArgsUsage: "<page> <filename>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return outputError(errors.NewInvalidRequest("photo-remove takes a page id and a filename"))
			}
			output, err := a.svc.RemovePhoto(c.Context, ops.RemovePhotoInput{
				PageID:   c.Args().Get(0),
				Filename: c.Args().Get(1),
			})
			return printResult(c, output, err)
		},
	}
}

// photoUpdateCmd creates the photo-update command.
func photoUpdateCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "photo-update",
		Usage:     "Change a photo's labels or zoom",
		ArgsUsage: "<page> <filename>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "caption", Usage: "Caption (masonry pages)"},
			&cli.StringFlag{Name: "title", Usage: "Title (single pages)"},
			&cli.StringFlag{Name: "desc", Usage: "Description (single pages)"},
			&cli.Float64Flag{Name: "zoom", Usage: "Display zoom, greater than 0 and at most 10"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return outputError(errors.NewInvalidRequest("photo-update takes a page id and a filename"))
			}
			input := ops.UpdatePhotoInput{PageID: c.Args().Get(0), Filename: c.Args().Get(1)}
			input.Caption = stringFlag(c, "caption")
			input.Title = stringFlag(c, "title")
			input.Desc = stringFlag(c, "desc")
			if c.IsSet("zoom") {
				z := c.Float64("zoom")
				input.Zoom = &z
			}
			output, err := a.svc.UpdatePhoto(c.Context, input)
			return printResult(c, output, err)
		},
	}
}

// photoRotateCmd creates the photo-rotate command.
func photoRotateCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "photo-rotate",
		Usage:     "Rotate a stored photo by a quarter turn",
		ArgsUsage: "<page> <filename>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "direction", Aliases: []string{"d"}, Value: ops.Clockwise, Usage: "cw|ccw"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return outputError(errors.NewInvalidRequest("photo-rotate takes a page id and a filename"))
			}
			output, err := a.svc.RotatePhoto(c.Context, ops.RotatePhotoInput{
				PageID:    c.Args().Get(0),
				Filename:  c.Args().Get(1),
				Direction: c.String("direction"),
			})
			return printResult(c, output, err)
		},
	}
}

// settingsCmd creates the settings command with get and set subcommands.
func settingsCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Read or change site colors, fonts and sizes",
		Subcommands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Print the current settings and the font catalog",
				Action: func(c *cli.Context) error {
					output, err := a.svc.GetSettings(c.Context)
					return printResult(c, output, err)
				},
			},
			{
				Name:  "set",
				Usage: "Change settings; unset flags keep their current value",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "bg", Usage: "Background color (#rrggbb)"},
					&cli.StringFlag{Name: "text", Usage: "Text color (#rrggbb)"},
					&cli.StringFlag{Name: "title-font", Usage: "Title font"},
					&cli.StringFlag{Name: "body-font", Usage: "Body font"},
					&cli.Float64Flag{Name: "title-size", Usage: "Title size in rem"},
					&cli.IntFlag{Name: "body-size", Usage: "Body size in px"},
				},
				Action: func(c *cli.Context) error {
					current, err := a.svc.GetSettings(c.Context)
					if err != nil {
						return outputError(err)
					}
					s := current.Settings
					if v := stringFlag(c, "bg"); v != nil {
						s.BgColor = *v
					}
					if v := stringFlag(c, "text"); v != nil {
						s.TextColor = *v
					}
					if v := stringFlag(c, "title-font"); v != nil {
						s.TitleFont = *v
					}
					if v := stringFlag(c, "body-font"); v != nil {
						s.BodyFont = *v
					}
					if c.IsSet("title-size") {
						v := c.Float64("title-size")
						s.TitleSize = &v
					}
					if c.IsSet("body-size") {
						v := c.Int("body-size")
						s.BodySize = &v
					}
					output, err := a.svc.SaveSettings(c.Context, s)
					return printResult(c, output, err)
				},
			},
		},
	}
}

// homeCmd creates the home command with get and set subcommands.
func homeCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "home",
		Usage: "Read or change the home page title, subtitle and footer",
		Subcommands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Print the home page text",
				Action: func(c *cli.Context) error {
					output, err := a.svc.GetHome(c.Context)
					return printResult(c, output, err)
				},
			},
			{
				Name:  "set",
				Usage: "Change the home page text; unset flags are kept",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "Site title"},
					&cli.StringFlag{Name: "subtitle", Usage: "Line under the title"},
					&cli.StringFlag{Name: "footer", Usage: "Footer text"},
				},
				Action: func(c *cli.Context) error {
					output, err := a.svc.SetHome(c.Context, ops.SetHomeInput{
						Title:    stringFlag(c, "title"),
						Subtitle: stringFlag(c, "subtitle"),
						Footer:   stringFlag(c, "footer"),
					})
					return printResult(c, output, err)
				},
			},
		},
	}
}

// publishCmd creates the publish command.
func publishCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Commit every change in the gallery and push it",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "Commit message"},
		},
		Action: func(c *cli.Context) error {
			output, err := a.svc.Publish(c.Context, ops.PublishInput{Message: c.String("message")})
			return printResult(c, output, err)
		},
	}
}

// historyCmd creates the history command.
func historyCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recent operations, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 50, Usage: "Maximum entries (max 500)"},
			&cli.StringFlag{Name: "op", Usage: "Only this operation name"},
		},
		Action: func(c *cli.Context) error {
			entries, err := a.svc.History(c.Context, journal.ListInput{
				Limit: c.Int("limit"),
				Op:    c.String("op"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, map[string]any{"entries": entries})
		},
	}
}

// Helper functions

// printResult prints an operation's output, or its error as a CLI exit.
func printResult(c *cli.Context, output any, err error) error {
	if err != nil {
		return outputError(err)
	}
	return outputJSON(c.App.Writer, output)
}

// outputJSON marshals v to w as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	gErr := errors.From(err)
	return cli.Exit(fmt.Sprintf("[%s] %s", gErr.Code, gErr.Message), 1)
}

// stringFlag returns the flag value when it was given, nil otherwise.
func stringFlag(c *cli.Context, name string) *string {
	if !c.IsSet(name) {
		return nil
	}
	v := c.String(name)
	return &v
}
