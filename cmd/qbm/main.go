package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/nikbrunner/qbm/internal/bookmarks"
	"github.com/nikbrunner/qbm/internal/config"
	"github.com/nikbrunner/qbm/internal/di"
	"github.com/nikbrunner/qbm/internal/exporter"
	"github.com/nikbrunner/qbm/internal/importer"
	"github.com/nikbrunner/qbm/internal/model"
	"github.com/nikbrunner/qbm/internal/render"
	"github.com/nikbrunner/qbm/internal/search"
	"github.com/nikbrunner/qbm/internal/settings"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := os.Args[1:]
	if len(args) == 0 {
		args = []string{"list"}
	}

	var err error
	switch args[0] {
	case "help", "--help", "-h":
		printHelp()
		return
	case "list":
		err = runList(ctx, args[1:])
	case "add":
		err = runAdd(ctx, args[1:])
	case "tag":
		err = runTag(ctx, args[1:])
	case "page":
		err = runPage(args[1:])
	case "find":
		err = runFind(ctx, args[1:])
	case "rm":
		err = runRemove(ctx, args[1:])
	case "export":
		err = runExport(ctx, args[1:])
	case "import":
		err = runImport(ctx, args[1:])
	default:
		err = usageError("unknown command %q", args[0])
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var ue usage
		if errors.As(err, &ue) {
			fmt.Fprintln(os.Stderr, "Run 'qbm help' for usage.")
		}
		os.Exit(1)
	}
}

func printHelp() {
	help := `qbm - Quran bookmarks

Usage:
  qbm [list] [--tags|--flat] [--sort date|location]
                              Show bookmarks
  qbm add page <page>         Bookmark a page
  qbm add ayah <sura> <ayah> <page>
                              Bookmark a verse
  qbm tag new <name>          Create a tag
  qbm tag add <bookmark> <tag>
                              Tag a bookmark (ids)
  qbm page <page>|clear       Record or forget the last visited page
  qbm find <query>            Fuzzy search tags and bookmarks
  qbm rm [-n] [-y] <query>    Remove rows matching a query
  qbm rm tag <id>             Delete a tag
  qbm rm bookmark <id>        Delete a bookmark
  qbm rm untag <bookmark> <tag>
                              Detach a tag from a bookmark
  qbm export [path]           Export bookmarks to HTML
  qbm import <file>           Import bookmarks from HTML
  qbm help                    Show this help

Removing rows:
  A tag row deletes the tag, a bookmark listed under a tag only
  loses that tag, and an untagged bookmark row deletes the bookmark.
  -n prints what would be removed without changing anything.
  A query matching more than one row is refused unless -y is given.

Data Storage:
  ~/.config/qbm/ (override with QBM_DATA_DIR)
`
	fmt.Print(help)
}

type usage struct{ msg string }

func (u usage) Error() string { return u.msg }

func usageError(format string, a ...any) error {
	return usage{msg: fmt.Sprintf(format, a...)}
}

// app is the set of wired components a command works with.
type app struct {
	cfg   *config.Config
	store *di.StoreHandle
	prefs *settings.FileSettings
	agg   *bookmarks.Aggregator
}

func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	injector := di.NewContainer(cfg)
	store, err := do.Invoke[*di.StoreHandle](injector)
	if err != nil {
		return nil, fmt.Errorf("could not open storage: %w", err)
	}
	prefs, err := do.Invoke[*settings.FileSettings](injector)
	if err != nil {
		store.Shutdown()
		return nil, fmt.Errorf("could not load settings: %w", err)
	}

	return &app{
		cfg:   cfg,
		store: store,
		prefs: prefs,
		agg:   do.MustInvoke[*bookmarks.Aggregator](injector),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "Error closing storage: %v\n", err)
	}
}

// listOptions are the layout flags shared by list, find and rm.
type listOptions struct {
	groupByTag bool
	order      model.SortOrder
	dryRun     bool
	yes        bool
	rest       []string
}

func parseListOptions(cfg *config.Config, args []string) (listOptions, error) {
	opts := listOptions{groupByTag: cfg.List.GroupByTag, order: cfg.SortOrder()}
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; arg {
		case "--tags":
			opts.groupByTag = true
		case "--flat":
			opts.groupByTag = false
		case "-n", "--dry-run":
			opts.dryRun = true
		case "-y", "--yes":
			opts.yes = true
		case "--sort":
			if i+1 >= len(args) {
				return opts, usageError("--sort needs a value")
			}
			i++
			order, ok := model.ParseSortOrder(args[i])
			if !ok {
				return opts, usageError("unknown sort order %q", args[i])
			}
			opts.order = order
		default:
			opts.rest = append(opts.rest, arg)
		}
	}
	return opts, nil
}

// runList prints the bookmark list.
func runList(ctx context.Context, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	opts, err := parseListOptions(a.cfg, args)
	if err != nil {
		return err
	}

	outcome := <-a.agg.FetchAsync(ctx, opts.order, opts.groupByTag)
	if outcome.Err != nil {
		return fmt.Errorf("could not load bookmarks: %w", outcome.Err)
	}

	fmt.Print(render.Rows(outcome.Result, render.DefaultStyles()))
	return nil
}

// runAdd handles "add page" and "add ayah".
func runAdd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("add needs 'page' or 'ayah'")
	}

	var b model.Bookmark
	switch args[0] {
	case "page":
		nums, err := parseInts(args[1:], 1)
		if err != nil {
			return err
		}
		b = model.NewPageBookmark(nums[0])
	case "ayah":
		nums, err := parseInts(args[1:], 3)
		if err != nil {
			return err
		}
		b = model.NewAyahBookmark(nums[0], nums[1], nums[2])
	default:
		return usageError("add needs 'page' or 'ayah', got %q", args[0])
	}

	if !model.ValidPage(b.Page) {
		return usageError("page must be between %d and %d", model.FirstPage, model.LastPage)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.store.AddBookmark(ctx, b)
	if err != nil {
		return fmt.Errorf("could not add bookmark: %w", err)
	}
	fmt.Printf("Added #%d %s\n", id, b.Label())
	return nil
}

// runTag handles "tag new" and "tag add".
func runTag(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("tag needs 'new' or 'add'")
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	switch args[0] {
	case "new":
		name := strings.TrimSpace(strings.Join(args[1:], " "))
		if name == "" {
			return usageError("tag new needs a name")
		}
		id, err := a.store.AddTag(ctx, name)
		if err != nil {
			return fmt.Errorf("could not add tag: %w", err)
		}
		fmt.Printf("Created tag #%d %s\n", id, name)
	case "add":
		nums, err := parseInts(args[1:], 2)
		if err != nil {
			return err
		}
		if err := a.store.TagBookmark(ctx, int64(nums[0]), int64(nums[1])); err != nil {
			return fmt.Errorf("could not tag bookmark: %w", err)
		}
		fmt.Printf("Tagged #%d with #%d\n", nums[0], nums[1])
	default:
		return usageError("tag needs 'new' or 'add', got %q", args[0])
	}
	return nil
}

// runPage records the last visited page.
func runPage(args []string) error {
	if len(args) != 1 {
		return usageError("page needs a page number or 'clear'")
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if args[0] == "clear" {
		return a.prefs.ClearLastPage()
	}

	nums, err := parseInts(args, 1)
	if err != nil {
		return err
	}
	if !model.ValidPage(nums[0]) {
		return usageError("page must be between %d and %d", model.FirstPage, model.LastPage)
	}
	return a.prefs.SetLastPage(nums[0])
}

// runFind prints rows matching a fuzzy query.
func runFind(ctx context.Context, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	opts, err := parseListOptions(a.cfg, args)
	if err != nil {
		return err
	}
	query := strings.Join(opts.rest, " ")
	if query == "" {
		return usageError("find needs a query")
	}

	result, err := a.agg.Fetch(ctx, opts.order, opts.groupByTag)
	if err != nil {
		return fmt.Errorf("could not load bookmarks: %w", err)
	}

	matches := search.FuzzySearchRows(result.Rows, query)
	if len(matches) == 0 {
		fmt.Printf("Nothing found for '%s'\n", query)
		return nil
	}

	styles := render.DefaultStyles()
	for _, m := range matches {
		fmt.Println(render.Line(m.Row, result.TagsByID, styles))
	}
	return nil
}

// runRemove removes rows picked by id, or the rows matching a fuzzy query.
func runRemove(ctx context.Context, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	opts, err := parseListOptions(a.cfg, args)
	if err != nil {
		return err
	}
	if len(opts.rest) == 0 {
		return usageError("rm needs a query or 'tag', 'bookmark' or 'untag' with ids")
	}

	var rows []model.Row
	ref, byID, err := parseRowRef(opts.rest)
	switch {
	case err != nil:
		return err
	case byID:
		result, err := a.agg.Fetch(ctx, opts.order, ref.GroupByTag())
		if err != nil {
			return fmt.Errorf("could not load bookmarks: %w", err)
		}
		row, ok := bookmarks.FindRow(result.Rows, ref)
		if !ok {
			return fmt.Errorf("no such row: %s", strings.Join(opts.rest, " "))
		}
		rows = []model.Row{row}
	default:
		query := strings.Join(opts.rest, " ")
		result, err := a.agg.Fetch(ctx, opts.order, opts.groupByTag)
		if err != nil {
			return fmt.Errorf("could not load bookmarks: %w", err)
		}
		rows = search.Rows(search.FuzzySearchRows(result.Rows, query))
		if err := checkMatches(rows, opts.yes || opts.dryRun); err != nil {
			styles := render.DefaultStyles()
			for _, row := range rows {
				fmt.Println(render.Line(row, result.TagsByID, styles))
			}
			return err
		}
	}

	d := bookmarks.Classify(rows)
	if d.Empty() {
		fmt.Printf("Nothing to remove for '%s'\n", strings.Join(opts.rest, " "))
		return nil
	}

	fmt.Printf("Tags to delete: %v\nBookmarks to delete: %v\nTags to detach: %d\n",
		d.TagIDs, d.BookmarkIDs, len(d.Untag))
	if opts.dryRun {
		return nil
	}

	if err := a.agg.RemoveRows(ctx, rows); err != nil {
		return fmt.Errorf("could not delete: %w", err)
	}
	fmt.Println("Removed.")
	return nil
}

// parseRowRef reads "tag <id>", "bookmark <id>" or "untag <bookmark> <tag>".
// byID is false when args are a search query instead.
func parseRowRef(args []string) (ref bookmarks.RowRef, byID bool, err error) {
	var want int
	switch args[0] {
	case "tag", "bookmark":
		want = 1
	case "untag":
		want = 2
	default:
		return ref, false, nil
	}

	nums, err := parseInts(args[1:], want)
	if err != nil {
		return ref, true, err
	}
	for _, n := range nums {
		if n <= 0 {
			return ref, true, usageError("ids must be positive, got %d", n)
		}
	}

	switch args[0] {
	case "tag":
		ref = bookmarks.TagRef(int64(nums[0]))
	case "bookmark":
		ref = bookmarks.BookmarkRef(int64(nums[0]))
	default:
		ref = bookmarks.AssignmentRef(int64(nums[0]), int64(nums[1]))
	}
	return ref, true, nil
}

// checkMatches refuses to remove several search matches unless allowMany.
func checkMatches(rows []model.Row, allowMany bool) error {
	if len(rows) > 1 && !allowMany {
		return fmt.Errorf("query matches %d rows; pass -y to remove all of them, or remove one by id", len(rows))
	}
	return nil
}

// runExport handles the export subcommand.
func runExport(ctx context.Context, args []string) error {
	// Determine output path
	var outputPath string
	if len(args) >= 1 {
		outputPath = args[0]
	} else {
		var err error
		if outputPath, err = exporter.DefaultExportPath(); err != nil {
			return fmt.Errorf("could not get default export path: %w", err)
		}
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	tags, err := a.store.Tags(ctx)
	if err != nil {
		return fmt.Errorf("could not load bookmarks: %w", err)
	}
	bms, err := a.store.Bookmarks(ctx, model.SortByLocation)
	if err != nil {
		return fmt.Errorf("could not load bookmarks: %w", err)
	}

	html, err := exporter.ExportHTML(tags, bms)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, []byte(html), 0644); err != nil {
		return fmt.Errorf("could not write file: %w", err)
	}

	fmt.Printf("Exported %d bookmarks, %d tags to %s\n", len(bms), len(tags), outputPath)
	return nil
}

// runImport handles the import subcommand.
func runImport(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("import needs a file")
	}

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("could not open file: %w", err)
	}
	defer file.Close()

	doc, err := importer.ParseHTMLBookmarks(file)
	if err != nil {
		return fmt.Errorf("could not parse HTML: %w", err)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	added, skipped, err := importer.Merge(ctx, a.store, doc)
	if err != nil {
		return fmt.Errorf("could not import: %w", err)
	}

	fmt.Printf("Imported %d bookmarks", added)
	if skipped > 0 {
		fmt.Printf(" (%d duplicates skipped)", skipped)
	}
	fmt.Println()
	return nil
}

// parseInts parses exactly n integer arguments.
func parseInts(args []string, n int) ([]int, error) {
	if len(args) != n {
		return nil, usageError("expected %d number(s), got %d", n, len(args))
	}
	nums := make([]int, n)
	for i, arg := range args {
		v, err := strconv.Atoi(arg)
		if err != nil {
			return nil, usageError("%q is not a number", arg)
		}
		nums[i] = v
	}
	return nums, nil
}
