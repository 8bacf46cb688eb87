package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/SundayYogurt/visa_admin/internal/domain"
	"github.com/SundayYogurt/visa_admin/internal/services"
	"github.com/spf13/cobra"
)

const listHelp = `commands:
  search <text>      filter by name, email or passport (empty clears)
  status <status>    pending, under_review, approved, rejected or any
  page <n> | next | prev
  approve <id> | reject <id>
  open <id>          application details
  refresh | help | quit`

const detailHelp = `commands:
  approve | reject
  valid <doc-id> | invalid <doc-id>
  view <doc-id>      open a document
  pdf                preview the summary PDF
  download           save the summary PDF
  refresh | back | help | quit`

var errQuit = errors.New("quit")

func newConsoleCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Interactive review session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.requireSession()
			c := &console{a: a, list: a.listService()}
			defer c.list.Close()

			err := c.run(cmd.Context())
			if errors.Is(err, errQuit) || errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

type console struct {
	a    *app
	list *services.ApplicationListService
}

func (c *console) run(ctx context.Context) error {
	if err := c.list.Load(ctx); err != nil {
		c.a.log.Debug("initial load failed", "error", err)
	}
	renderList(c.a.out, c.list.View())
	fmt.Fprintln(c.a.out, "Type `help` for commands.")

	for {
		cmd, arg, err := c.read(ctx, "applications> ")
		if err != nil {
			return err
		}
		if err := c.listCommand(ctx, cmd, arg); err != nil {
			return err
		}
	}
}

func (c *console) read(ctx context.Context, prompt string) (string, string, error) {
	fmt.Fprint(c.a.out, prompt)
	line, err := c.a.in.ReadLine(ctx)
	if err != nil {
		return "", "", err
	}
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	return strings.ToLower(cmd), strings.TrimSpace(arg), nil
}

func (c *console) listCommand(ctx context.Context, cmd, arg string) error {
	switch cmd {
	case "":
		return nil
	case "quit", "exit", "q":
		return errQuit
	case "help", "?":
		fmt.Fprintln(c.a.out, listHelp)
		return nil
	case "refresh":
		_ = c.list.Load(ctx)
	case "search":
		_ = c.list.SetSearch(ctx, arg)
	case "status":
		st, err := domain.ParseStatusFilter(arg)
		if err != nil {
			fmt.Fprintf(c.a.out, "unknown status %q\n", arg)
			return nil
		}
		_ = c.list.SetStatusFilter(ctx, st)
	case "page":
		n, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintf(c.a.out, "invalid page %q\n", arg)
			return nil
		}
		c.list.SetPage(n)
	case "next", "n":
		c.list.NextPage()
	case "prev", "p":
		c.list.PrevPage()
	case "approve", "reject":
		id, err := parseID(arg, "application id")
		if err != nil {
			fmt.Fprintln(c.a.out, err)
			return nil
		}
		if cmd == "approve" {
			err = c.list.Approve(ctx, id)
		} else {
			err = c.list.Reject(ctx, id)
		}
		if errors.Is(err, domain.ErrNotActionable) {
			fmt.Fprintf(c.a.out, "application %d is not under review\n", id)
			return nil
		}
	case "open", "show":
		id, err := parseID(arg, "application id")
		if err != nil {
			fmt.Fprintln(c.a.out, err)
			return nil
		}
		back, err := c.detail(ctx, id)
		if err != nil {
			return err
		}
		if back {
			_ = c.list.Load(ctx)
		}
	default:
		fmt.Fprintf(c.a.out, "unknown command %q, type `help`\n", cmd)
		return nil
	}
	renderList(c.a.out, c.list.View())
	return nil
}

// detail runs the detail mode for one application. It reports whether the
// list should be refetched on return.
func (c *console) detail(ctx context.Context, id uint) (bool, error) {
	nav := &listNavigator{}
	d, err := c.a.detailService(id, nav)
	if err != nil {
		return false, err
	}
	defer d.Close()

	if err := d.Load(ctx); err != nil && d.State().NotFound {
		fmt.Fprintf(c.a.out, "Application not found. Returning to the list.\n")
		return false, nil
	}
	renderDetail(c.a.out, d.State())

	changed := false
	for {
		cmd, arg, err := c.read(ctx, fmt.Sprintf("application #%d> ", id))
		if err != nil {
			return changed, err
		}

		switch cmd {
		case "":
			continue
		case "quit", "exit", "q":
			return changed, errQuit
		case "back", "b":
			return changed, nil
		case "help", "?":
			fmt.Fprintln(c.a.out, detailHelp)
			continue
		case "refresh":
			_ = d.Load(ctx)
		case "approve":
			err = d.Approve(ctx)
		case "reject":
			err = d.Reject(ctx)
		case "valid", "invalid":
			docID, perr := parseID(arg, "document id")
			if perr != nil {
				fmt.Fprintln(c.a.out, perr)
				continue
			}
			err = d.SetDocumentValidation(ctx, docID, domain.ValidationStatus(cmd))
			changed = changed || err == nil
		case "view":
			docID, perr := parseID(arg, "document id")
			if perr != nil {
				fmt.Fprintln(c.a.out, perr)
				continue
			}
			err = d.StartViewDocument(docID)
		case "pdf":
			err = d.StartPreviewPDF()
		case "download":
			err = d.StartDownloadPDF()
		default:
			fmt.Fprintf(c.a.out, "unknown command %q, type `help`\n", cmd)
			continue
		}

		switch {
		case errors.Is(err, services.ErrBusy):
			fmt.Fprintln(c.a.out, "already in progress")
		case errors.Is(err, domain.ErrNotActionable):
			fmt.Fprintln(c.a.out, "application is not under review")
		case errors.Is(err, services.ErrNoSummaryPDF):
			fmt.Fprintln(c.a.out, "no summary PDF for this application")
		}

		if nav.take() {
			return true, nil
		}
		renderDetail(c.a.out, d.State())
	}
}
