package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dpshade/pocket-compose/internal/clipboard"
	apperrors "github.com/dpshade/pocket-compose/internal/errors"
	"github.com/dpshade/pocket-compose/internal/models"
	"github.com/dpshade/pocket-compose/internal/renderer"
	"github.com/dpshade/pocket-compose/internal/service"
)

const wordWrap = 100

// CLI provides headless command-line interface functionality
type CLI struct {
	service *service.Service
	ctx     context.Context
	out     io.Writer
	errOut  io.Writer
}

// NewCLI creates a new CLI instance writing to stdout and stderr
func NewCLI(ctx context.Context, svc *service.Service) *CLI {
	return &CLI{service: svc, ctx: ctx, out: os.Stdout, errOut: os.Stderr}
}

// ExecuteCommand processes a CLI command and returns the result
func (c *CLI) ExecuteCommand(args []string) error {
	if len(args) == 0 {
		return c.printUsage()
	}

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "init":
		return c.initLibrary()
	case "list", "ls":
		return c.listTemplates(commandArgs)
	case "pools":
		return c.listPools()
	case "get", "show":
		return c.showTemplate(commandArgs)
	case "resolve":
		return c.resolve(commandArgs)
	case "outputs":
		return c.outputs(commandArgs)
	case "buckets":
		return c.buckets(commandArgs)
	case "sample":
		return c.sample(commandArgs)
	case "export":
		return c.export(commandArgs)
	case "wildcards":
		return c.wildcards(commandArgs)
	case "help":
		return c.printUsage()
	default:
		return apperrors.CommandNotFoundError(command)
	}
}

// options holds every flag a command may take. Commands read the fields
// they care about and ignore the rest.
type options struct {
	id     string
	sess   models.Session
	format string
	output string
	search string
	n      int
	slot   int64
	copy   bool
}

// parseOptions reads the positional template id and the flags that follow
func parseOptions(args []string) (options, error) {
	var opts options

	value := func(i int) (string, error) {
		if i+1 >= len(args) {
			return "", apperrors.InvalidInputError("%s requires a value", args[i])
		}
		return args[i+1], nil
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			if opts.id != "" {
				return opts, apperrors.InvalidInputError("unexpected argument %q", arg)
			}
			opts.id = arg
			continue
		}

		if arg == "--copy" || arg == "-c" {
			opts.copy = true
			continue
		}

		v, err := value(i)
		if err != nil {
			return opts, err
		}
		i++

		switch arg {
		case "--id":
			if opts.sess.CompositionID, err = strconv.ParseInt(v, 10, 64); err != nil {
				return opts, apperrors.InvalidInputError("invalid composition id %q", v)
			}
		case "--bucket", "-b":
			if opts.sess.BucketID, err = strconv.ParseInt(v, 10, 64); err != nil {
				return opts, apperrors.InvalidInputError("invalid bucket id %q", v)
			}
		case "--slot":
			if opts.slot, err = strconv.ParseInt(v, 10, 64); err != nil {
				return opts, apperrors.InvalidInputError("invalid slot %q", v)
			}
		case "--n", "-n":
			if opts.n, err = strconv.Atoi(v); err != nil {
				return opts, apperrors.InvalidInputError("invalid sample size %q", v)
			}
		case "--set":
			name, val, ok := strings.Cut(v, "=")
			if !ok || name == "" {
				return opts, apperrors.InvalidInputError("--set expects name=value, got %q", v)
			}
			if opts.sess.Overrides == nil {
				opts.sess.Overrides = make(map[string]string)
			}
			opts.sess.Overrides[name] = val
		case "--lock":
			name, vals, ok := strings.Cut(v, "=")
			if !ok || name == "" || vals == "" {
				return opts, apperrors.InvalidInputError("--lock expects name=v1,v2, got %q", v)
			}
			if opts.sess.Locked == nil {
				opts.sess.Locked = make(map[string][]string)
			}
			opts.sess.Locked[name] = append(opts.sess.Locked[name], strings.Split(vals, ",")...)
		case "--op":
			name, rule, ok := strings.Cut(v, ":")
			from, to, ruleOK := strings.Cut(rule, "=")
			if !ok || !ruleOK || name == "" || from == "" {
				return opts, apperrors.InvalidInputError("--op expects name:from=to, got %q", v)
			}
			if opts.sess.Operation == nil {
				opts.sess.Operation = make(models.Operation)
			}
			if opts.sess.Operation[name] == nil {
				opts.sess.Operation[name] = make(map[string]string)
			}
			opts.sess.Operation[name][from] = to
		case "--format", "-f":
			opts.format = v
		case "--output", "-o":
			opts.output = v
		case "--search", "-s":
			opts.search = v
		default:
			return opts, apperrors.InvalidInputError("unknown flag %s", arg)
		}
	}
	return opts, nil
}

func requireID(command string, opts options) error {
	if opts.id == "" {
		return apperrors.InvalidCommandError(command, "requires a template ID")
	}
	return nil
}

func (c *CLI) initLibrary() error {
	if err := c.service.InitLibrary(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Initialized template library in %s\n", c.service.Config().RootDir)
	return nil
}

// listTemplates lists all templates, optionally fuzzy-filtered
func (c *CLI) listTemplates(args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}

	templates, err := c.service.SearchTemplates(opts.search)
	if err != nil {
		return err
	}

	switch opts.format {
	case "json":
		return json.NewEncoder(c.out).Encode(templates)
	case "ids":
		for _, t := range templates {
			fmt.Fprintln(c.out, t.ID)
		}
	default:
		fmt.Fprintf(c.out, "%-20s %-30s %-10s %s\n", "ID", "Name", "Wildcards", "Blocks")
		fmt.Fprintln(c.out, strings.Repeat("-", 72))
		for _, t := range templates {
			name := t.Name
			if len(name) > 30 {
				name = name[:27] + "..."
			}
			fmt.Fprintf(c.out, "%-20s %-30s %-10d %d\n", t.ID, name, len(t.Wildcards), len(t.Blocks))
		}
	}
	return nil
}

func (c *CLI) listPools() error {
	ids, err := c.service.ListPools()
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(c.out, id)
	}
	return nil
}

// showTemplate prints a template definition
func (c *CLI) showTemplate(args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	if err := requireID("show", opts); err != nil {
		return err
	}

	tmpl, err := c.service.GetTemplate(opts.id)
	if err != nil {
		return err
	}

	if opts.format == "json" {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(tmpl)
	}
	enc := yaml.NewEncoder(c.out)
	enc.SetIndent(2)
	if err := enc.Encode(tmpl); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternalError, "failed to encode template")
	}
	return enc.Close()
}

// resolve runs one resolution pass and prints it
func (c *CLI) resolve(args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	if err := requireID("resolve", opts); err != nil {
		return err
	}

	pass, err := c.service.Resolve(c.ctx, opts.id, opts.sess)
	if err != nil {
		return err
	}
	c.printWarnings(renderer.Warnings(pass))

	r := renderer.NewRenderer(pass)
	var rendered string
	switch opts.format {
	case "", "text":
		rendered = r.RenderText()
	case "json":
		if rendered, err = r.RenderJSON(); err != nil {
			return err
		}
	case "markdown", "md":
		if rendered, err = c.renderMarkdown(r.RenderMarkdown()); err != nil {
			return err
		}
	default:
		return apperrors.InvalidInputError("unknown format %q (text, json, markdown)", opts.format)
	}
	fmt.Fprintln(c.out, strings.TrimRight(rendered, "\n"))

	if opts.copy {
		return c.copyToClipboard(r.RenderText())
	}
	return nil
}

// outputs lists the terminal outputs of one composition with their labels
func (c *CLI) outputs(args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	if err := requireID("outputs", opts); err != nil {
		return err
	}

	pass, err := c.service.Resolve(c.ctx, opts.id, opts.sess)
	if err != nil {
		return err
	}
	c.printWarnings(renderer.Warnings(pass))

	if opts.format == "json" {
		return json.NewEncoder(c.out).Encode(pass.Outputs)
	}
	for i, out := range pass.Outputs {
		fmt.Fprintf(c.out, "%2d. %s\n    %s\n", i+1, out.Label, out.Text)
	}
	return nil
}

// buckets shows the windows of a bucket-composition and the slot inside it
func (c *CLI) buckets(args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	if err := requireID("buckets", opts); err != nil {
		return err
	}

	space, err := c.service.Space(c.ctx, opts.id)
	if err != nil {
		return err
	}
	view := service.ViewBucket(space, opts.sess, opts.slot)
	c.printWarnings(renderer.Warnings(view.Pass))

	md := renderer.RenderBucket(view.Bucket, space.Wildcards, view.Slot) + "\n" +
		renderer.NewRenderer(view.Pass).RenderMarkdown()
	if opts.format == "text" {
		fmt.Fprintln(c.out, md)
		return nil
	}
	rendered, err := c.renderMarkdown(md)
	if err != nil {
		return err
	}
	fmt.Fprint(c.out, rendered)
	return nil
}

// sample resolves an evenly spread set of compositions
func (c *CLI) sample(args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	if err := requireID("sample", opts); err != nil {
		return err
	}

	passes, err := c.service.Sample(c.ctx, opts.id, opts.sess, opts.n)
	if err != nil {
		return err
	}
	if len(passes) > 0 {
		c.printWarnings(renderer.Warnings(passes[0]))
	}

	switch opts.format {
	case "json":
		enc := json.NewEncoder(c.out)
		for _, p := range passes {
			if err := enc.Encode(map[string]interface{}{
				"composition_id": p.Session.CompositionID,
				"outputs":        p.Outputs,
			}); err != nil {
				return err
			}
		}
		return nil
	case "text":
		fmt.Fprint(c.out, renderer.RenderSamples(passes))
		return nil
	}
	rendered, err := c.renderMarkdown(renderer.RenderSamples(passes))
	if err != nil {
		return err
	}
	fmt.Fprint(c.out, rendered)
	return nil
}

// export writes the locked sub-product as JSON lines
func (c *CLI) export(args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	if err := requireID("export", opts); err != nil {
		return err
	}

	if opts.output == "-" {
		_, err := c.service.Export(c.ctx, opts.id, opts.sess, c.out)
		return err
	}

	manifest, path, err := c.service.ExportToFile(c.ctx, opts.id, opts.sess, opts.output)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Exported %d of %d compositions to %s\n", manifest.Count, manifest.LockedTotal, path)
	if manifest.Truncated {
		fmt.Fprintf(c.errOut, "warning: export limited to %d compositions\n", manifest.Count)
	}
	return nil
}

// wildcards lists the merged wildcard values, optionally fuzzy-filtered
func (c *CLI) wildcards(args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	if err := requireID("wildcards", opts); err != nil {
		return err
	}

	matches, err := c.service.SearchWildcards(c.ctx, opts.id, opts.search)
	if err != nil {
		return err
	}
	if opts.format == "json" {
		return json.NewEncoder(c.out).Encode(matches)
	}
	for _, m := range matches {
		fmt.Fprintf(c.out, "%-16s %3d  %s\n", m.Name, m.Index, m.Value)
	}
	return nil
}

func (c *CLI) renderMarkdown(md string) (string, error) {
	return renderer.RenderTerminal(md, c.service.Config().RenderStyle, wordWrap)
}

func (c *CLI) printWarnings(warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(c.errOut, "warning: %s\n", w)
	}
}

func (c *CLI) copyToClipboard(text string) error {
	status, err := clipboard.CopyWithFallback(text)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternalError, "failed to copy to clipboard")
	}
	fmt.Fprintln(c.errOut, status)
	return nil
}

func (c *CLI) printUsage() error {
	fmt.Fprintln(c.out, `pocket-compose - Headless CLI mode

Usage: pocket-compose <command> [options]

Commands:
  init                       Create the template library
  list, ls [--search q]      List templates
  pools                      List external text pools
  show <id>                  Show a template definition
  resolve <id>               Resolve one composition
      --id N                   composition id (wraps around)
      --set name=value         override a wildcard value
      --lock name=v1,v2        lock wildcard values (for export totals)
      --op name:from=to        display-only value replacement
      --format text|json|markdown
      --copy                   copy the text output to the clipboard
  outputs <id> [--id N]      List terminal outputs with their leaf labels
  buckets <id> [--bucket B] [--slot S]
                             Show the windows of a bucket-composition
  sample <id> [--n N]        Resolve an evenly spread sample
  export <id> [--lock ...] [--output file|-]
                             Export the locked sub-product as JSON lines
  wildcards <id> [--search q]
                             List wildcard values
  help                       Show help`)
	return nil
}
