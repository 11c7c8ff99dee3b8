// pattern: Imperative Shell
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"plantree/internal/config"
	"plantree/internal/instance"
	"plantree/internal/logging"
	"plantree/internal/project"
	"plantree/internal/scm"
	"plantree/internal/tree"
	"plantree/internal/web"
)

// ResolveDataDir returns the directory holding the project store and the
// lock/port files. If configDir is specified, uses that; otherwise the
// config directory.
func ResolveDataDir(configDir string) string {
	if configDir != "" {
		return configDir
	}
	return config.ConfigDir()
}

// BuildApp creates and configures the CLI application with all commands and groups.
func BuildApp(version string, configDir string) *App {
	app := NewApp(version)
	dataDir := ResolveDataDir(configDir)

	app.AddCommand(&Command{
		Name:    "list",
		Summary: "Output JSON for all attached projects",
		Usage:   "Usage: plantree list",
		Run: func(args []string) error {
			return runList(os.Stdout, dataDir)
		},
	})

	app.AddCommand(&Command{
		Name:    "attach",
		Summary: "Attach a project folder",
		Usage:   "Usage: plantree attach <path> [--name <display name>]",
		Run: func(args []string) error {
			return runAttach(os.Stdout, dataDir, args)
		},
	})

	app.AddCommand(&Command{
		Name:    "detach",
		Summary: "Detach a project folder",
		Usage:   "Usage: plantree detach <path>",
		Run: func(args []string) error {
			return runDetach(os.Stdout, dataDir, args)
		},
	})

	app.AddCommand(&Command{
		Name:    "tree",
		Summary: "Print the project tree",
		Usage:   "Usage: plantree tree [--all] [--deleted] [--json]",
		Run: func(args []string) error {
			return runTree(os.Stdout, dataDir, args)
		},
	})

	app.AddCommand(&Command{
		Name:    "cleanup",
		Summary: "Remove stale lock/port files from a crashed instance",
		Usage:   "Usage: plantree cleanup",
		Run: func(args []string) error {
			return runCleanup(os.Stdout, dataDir)
		},
	})

	app.AddCommand(&Command{
		Name:    "version",
		Summary: "Print version and exit",
		Usage:   "Usage: plantree version",
		Run: func(args []string) error {
			fmt.Println(version)
			return nil
		},
	})

	selectionGroup := app.AddGroup("selection", "Read or move the running instance's selection")
	RegisterSelectionCommands(selectionGroup, configDir)

	return app
}

// RegisterSelectionCommands registers the selection command group.
func RegisterSelectionCommands(group *Group, configDir string) {
	group.AddCommand(&Command{
		Name:    "get",
		Summary: "Print the selected node as JSON",
		Usage:   "Usage: plantree selection get",
		Run: func(args []string) error {
			delegate := Delegate{ConfigDir: configDir}
			delegate.Run(func(client *instance.Client) error {
				data, err := client.Selection()
				if err != nil {
					return err
				}
				return PrintJSON(os.Stdout, data)
			})
			return nil
		},
	})

	group.AddCommand(&Command{
		Name:    "set",
		Summary: "Move the selection to a project root or file path",
		Usage:   "Usage: plantree selection set <path>",
		Run: func(args []string) error {
			if len(args) < 1 {
				return fmt.Errorf("usage: plantree selection set <path>")
			}
			delegate := Delegate{ConfigDir: configDir}
			delegate.Run(func(client *instance.Client) error {
				if err := client.Select(args[0]); err != nil {
					return err
				}
				fmt.Println("Selection updated.")
				return nil
			})
			return nil
		},
	})
}

func newProvider(dataDir string) *project.Provider {
	return project.NewProvider(project.NewStore(dataDir), logging.NopLogger())
}

// runList prints the attached projects from the store.
func runList(w io.Writer, dataDir string) error {
	projects, err := newProvider(dataDir).List(context.Background())
	if err != nil {
		return err
	}
	data, err := json.Marshal(projects)
	if err != nil {
		return err
	}
	return PrintJSON(w, append(data, '\n'))
}

// runAttach attaches a folder. A running instance sees the change through
// its store watcher.
func runAttach(w io.Writer, dataDir string, args []string) error {
	fs := pflag.NewFlagSet("attach", pflag.ContinueOnError)
	name := fs.StringP("name", "n", "", "Display name override")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: plantree attach <path> [--name <display name>]")
	}

	ap, err := newProvider(dataDir).Attach(context.Background(), fs.Arg(0), *name)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Attached %s (%s)\n", ap.DisplayName(), ap.Root)
	return nil
}

// runDetach detaches a folder by its root path.
func runDetach(w io.Writer, dataDir string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: plantree detach <path>")
	}
	root, err := project.NormalizeRoot(args[0])
	if err != nil {
		return err
	}
	if err := newProvider(dataDir).Detach(context.Background(), root); err != nil {
		return err
	}
	fmt.Fprintf(w, "Detached %s\n", root)
	return nil
}

// runTree prints the tree of the running instance, including its selection,
// or builds it locally when no instance runs.
func runTree(w io.Writer, dataDir string, args []string) error {
	fs := pflag.NewFlagSet("tree", pflag.ContinueOnError)
	all := fs.BoolP("all", "a", false, "Include non-plan files")
	deleted := fs.BoolP("deleted", "d", false, "Include deleted files")
	asJSON := fs.Bool("json", false, "Print JSON instead of text")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resp, err := liveTree(dataDir)
	if err != nil {
		resp, err = localTree(dataDir)
		if err != nil {
			return err
		}
	}

	if *asJSON {
		data, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		return PrintJSON(w, append(data, '\n'))
	}

	RenderTree(w, resp.Projects, TreeOptions{
		ShowDeleted:      *deleted,
		ShowNonPlanFiles: *all,
		Selected:         resp.Selected,
	})
	return nil
}

// liveTree asks the running instance for its tree.
func liveTree(dataDir string) (web.TreeResponse, error) {
	var resp web.TreeResponse
	baseURL, err := instance.Discover(dataDir)
	if err != nil {
		return resp, err
	}
	data, err := instance.NewClient(baseURL).Tree()
	if err != nil {
		return resp, err
	}
	err = json.Unmarshal(data, &resp)
	return resp, err
}

// localTree builds the tree from the store without a running instance.
func localTree(dataDir string) (web.TreeResponse, error) {
	cfg, err := config.LoadFromDir(dataDir)
	if err != nil {
		return web.TreeResponse{}, fmt.Errorf("load config: %w", err)
	}

	attached, err := newProvider(dataDir).List(context.Background())
	if err != nil {
		return web.TreeResponse{}, err
	}

	git := scm.NewGit(logging.NopLogger(), cfg.IsIgnoredDir)
	loader := project.NewLoader(&cfg, git, logging.NopLogger())
	details, err := tree.NewBuilder(loader, logging.NopLogger()).Build(context.Background(), attached)
	if err != nil {
		return web.TreeResponse{}, err
	}
	return web.TreeResponse{Projects: tree.Sorted(details)}, nil
}

// runCleanup removes stale lock and port files from a crashed instance.
func runCleanup(w io.Writer, dataDir string) error {
	removed, err := instance.RemoveStale(dataDir)
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		fmt.Fprintln(w, "Nothing to clean up.")
		return nil
	}
	for _, path := range removed {
		fmt.Fprintf(w, "Removed %s\n", path)
	}
	return nil
}
