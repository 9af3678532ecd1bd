package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// newWatchCmd creates the "watch" subcommand for rebuilding on input changes.
func newWatchCmd(opts *globalOptions) *cobra.Command {
	var (
		debounce     time.Duration
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild when the config or payload files change",
		Long: `Watch rebuilds the template whenever the config file, the agent
configuration or the user data script changes. Rapid changes are debounced.

Examples:
    tiernet watch -c tiernet.yaml -o stack.json
    tiernet watch -c tiernet.hcl --debounce 1s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), opts, watchOptions{
				debounce:     debounce,
				outputFormat: outputFormat,
				outputFile:   outputFile,
			})
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

type watchOptions struct {
	debounce     time.Duration
	outputFormat string
	outputFile   string
}

func runWatch(ctx context.Context, stdout, stderr io.Writer, opts *globalOptions, wopts watchOptions) error {
	cfg, _, closeLog, err := opts.load()
	if err != nil {
		return err
	}
	_ = closeLog()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	files, err := watchFiles(watcher, cfg.WatchPaths())
	if err != nil {
		return err
	}
	for f := range files {
		fmt.Fprintf(stderr, "Watching: %s\n", f)
	}

	rebuild := func() {
		if err := runBuild(stdout, stderr, opts, wopts.outputFormat, wopts.outputFile); err != nil {
			fmt.Fprintf(stderr, "Build error: %v\n", err)
			return
		}
		if wopts.outputFile != "" {
			fmt.Fprintf(stderr, "Build successful, wrote %s\n", wopts.outputFile)
		}
	}

	rebuild()
	fmt.Fprintln(stderr, "Watching for changes... (Ctrl+C to stop)")

	return watchLoop(ctx, watcher, files, wopts.debounce, func() {
		fmt.Fprintf(stderr, "\n[%s] Change detected, rebuilding...\n", time.Now().Format("15:04:05"))
		rebuild()
	}, stderr)
}

// watchFiles watches the parent directory of each path, since editors
// often replace files rather than write them in place. The returned set
// holds the cleaned absolute paths events are filtered against.
func watchFiles(watcher *fsnotify.Watcher, paths []string) (map[string]bool, error) {
	files := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		files[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}
	return files, nil
}

// watchLoop calls rebuild once per burst of relevant events until ctx ends.
func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, files map[string]bool, debounce time.Duration, rebuild func(), stderr io.Writer) error {
	var debounceTimer *time.Timer
	rebuildChan := make(chan struct{}, 1)
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !files[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounce, func() {
				select {
				case rebuildChan <- struct{}{}:
				default:
				}
			})

		case <-rebuildChan:
			rebuild()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(stderr, "Watch error: %v\n", err)

		case <-ctx.Done():
			fmt.Fprintln(stderr, "\nStopping watch...")
			return nil
		}
	}
}
