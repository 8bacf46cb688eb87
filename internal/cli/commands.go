package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SundayYogurt/visa_admin/internal/domain"
	"github.com/SundayYogurt/visa_admin/internal/dto"
	"github.com/SundayYogurt/visa_admin/internal/services"
	"github.com/spf13/cobra"
)

func newLoginCommand(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the admin session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if email == "" {
				fmt.Fprint(a.out, "Email: ")
				line, err := a.in.ReadLine(ctx)
				if err != nil {
					return err
				}
				email = line
			}
			if password == "" {
				fmt.Fprint(a.out, "Password: ")
				line, err := a.in.ReadLine(ctx)
				if err != nil {
					return err
				}
				password = line
			}

			auth := services.NewAuthService(a.client, a.sessions, a.log)
			s, err := auth.Login(ctx, email, password)
			if err != nil {
				return err
			}
			a.notifier.Success("Logged in", "as "+s.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password (prompted when omitted)")
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored admin session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := services.NewAuthService(a.client, a.sessions, a.log).Logout(); err != nil {
				return err
			}
			a.notifier.Success("Logged out", "")
			return nil
		},
	}
}

func newApplicationsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "applications",
		Aliases: []string{"apps"},
		Short:   "List and decide visa applications",
	}

	var search, status string
	var page int
	list := &cobra.Command{
		Use:   "list",
		Short: "List applications, eight per page",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := domain.ParseStatusFilter(status)
			if err != nil {
				return fmt.Errorf("%w: %q", err, status)
			}
			a.requireSession()

			svc := a.listService()
			defer svc.Close()
			if err := svc.SetFilter(cmd.Context(), dto.ApplicationFilter{Search: search, Status: st}); err != nil {
				return err
			}
			svc.SetPage(page)
			renderList(a.out, svc.View())
			return nil
		},
	}
	list.Flags().StringVarP(&search, "search", "s", "", "free-text search")
	list.Flags().StringVar(&status, "status", "", "pending, under_review, approved, rejected or any")
	list.Flags().IntVarP(&page, "page", "p", 1, "page number")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one application with its documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDetail(cmd.Context(), a, args[0], func(ctx context.Context, d *services.ApplicationDetailService) error {
				renderDetail(a.out, d.State())
				return nil
			})
		},
	}

	approve := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve an application under review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDetail(cmd.Context(), a, args[0], func(ctx context.Context, d *services.ApplicationDetailService) error {
				return explainDecision(d, d.Approve(ctx))
			})
		},
	}
	addDecisionFlags(approve, a, false)

	reject := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject an application under review, with an optional reason",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDetail(cmd.Context(), a, args[0], func(ctx context.Context, d *services.ApplicationDetailService) error {
				return explainDecision(d, d.Reject(ctx))
			})
		},
	}
	addDecisionFlags(reject, a, true)

	cmd.AddCommand(list, show, approve, reject)
	return cmd
}

func newDocumentsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs"},
		Short:   "Validate and preview application documents",
	}

	validate := &cobra.Command{
		Use:   "validate <application-id> <document-id> <valid|invalid>",
		Short: "Mark a document valid or invalid",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			docID, err := parseID(args[1], "document id")
			if err != nil {
				return err
			}
			status := domain.ValidationStatus(strings.ToLower(args[2]))
			if !status.IsDecision() {
				return services.ErrInvalidValidation
			}
			return withDetail(cmd.Context(), a, args[0], func(ctx context.Context, d *services.ApplicationDetailService) error {
				return explainDecision(d, d.SetDocumentValidation(ctx, docID, status))
			})
		},
	}

	preview := &cobra.Command{
		Use:   "preview <application-id> <document-id>",
		Short: "Open a document in the system viewer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			docID, err := parseID(args[1], "document id")
			if err != nil {
				return err
			}
			return withDetail(cmd.Context(), a, args[0], func(ctx context.Context, d *services.ApplicationDetailService) error {
				if d.State().Application.Document(docID) == nil {
					return fmt.Errorf("document %d does not belong to application %d", docID, d.ID())
				}
				if _, err := d.ViewDocument(ctx, docID); err != nil {
					return err
				}
				a.waitForPreview(ctx)
				return nil
			})
		},
	}

	cmd.AddCommand(validate, preview)
	return cmd
}

func newPDFCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pdf",
		Short: "Preview or download an application's generated summary PDF",
	}

	preview := &cobra.Command{
		Use:   "preview <application-id>",
		Short: "Open the summary PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDetail(cmd.Context(), a, args[0], func(ctx context.Context, d *services.ApplicationDetailService) error {
				if _, err := d.PreviewPDF(ctx); err != nil {
					return err
				}
				a.waitForPreview(ctx)
				return nil
			})
		},
	}

	download := &cobra.Command{
		Use:   "download <application-id>",
		Short: "Save the summary PDF as application_<id>.pdf",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDetail(cmd.Context(), a, args[0], func(ctx context.Context, d *services.ApplicationDetailService) error {
				path, err := d.DownloadPDF(ctx)
				if err != nil {
					return err
				}
				a.notifier.Success("Saved", path)
				return nil
			})
		},
	}

	cmd.AddCommand(preview, download)
	return cmd
}

func newFeedbacksCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedbacks",
		Short: "Applicant feedback",
	}

	var filter dto.FeedbackFilter
	export := &cobra.Command{
		Use:   "export",
		Short: "Download feedback as feedbacks_<date>.csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.requireSession()
			viewer, err := a.viewer()
			if err != nil {
				return err
			}
			defer viewer.Close()

			path, err := services.NewFeedbackExportService(a.client, viewer, a.log).Export(cmd.Context(), filter)
			if err != nil {
				return err
			}
			a.notifier.Success("Saved", path)
			return nil
		},
	}
	export.Flags().IntVar(&filter.Rating, "rating", 0, "only this rating (1-5)")
	export.Flags().UintVar(&filter.CountryID, "country", 0, "only this country id")
	export.Flags().UintVar(&filter.VisaTypeID, "visa-type", 0, "only this visa type id")

	var listFilter dto.FeedbackFilter
	var page int
	list := &cobra.Command{
		Use:   "list",
		Short: "List feedback, ten per page",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.requireSession()
			svc := a.feedbackService()
			defer svc.Close()

			ctx := cmd.Context()
			if err := svc.SetFilter(ctx, listFilter); err != nil {
				return err
			}
			if page > 1 {
				if err := svc.SetPage(ctx, page); err != nil {
					return err
				}
			}
			renderFeedbacks(a.out, svc.View())
			return nil
		},
	}
	list.Flags().IntVar(&listFilter.Rating, "rating", 0, "only this rating (1-5)")
	list.Flags().UintVar(&listFilter.CountryID, "country", 0, "only this country id")
	list.Flags().UintVar(&listFilter.VisaTypeID, "visa-type", 0, "only this visa type id")
	list.Flags().IntVarP(&page, "page", "p", 1, "page number")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one feedback entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "feedback id")
			if err != nil {
				return err
			}
			a.requireSession()
			svc := a.feedbackService()
			defer svc.Close()
			return svc.Delete(cmd.Context(), id)
		},
	}
	addDecisionFlags(del, a, false)

	cmd.AddCommand(list, del, export)
	return cmd
}

// withDetail loads one application and runs fn against it.
func withDetail(ctx context.Context, a *app, rawID string, fn func(context.Context, *services.ApplicationDetailService) error) error {
	id, err := parseID(rawID, "application id")
	if err != nil {
		return err
	}
	a.requireSession()

	d, err := a.detailService(id, &listNavigator{})
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Load(ctx); err != nil {
		if d.State().NotFound {
			return fmt.Errorf("application %d not found", id)
		}
		return err
	}
	return fn(ctx, d)
}

func explainDecision(d *services.ApplicationDetailService, err error) error {
	if errors.Is(err, domain.ErrNotActionable) {
		st := d.State()
		return fmt.Errorf("application %d is %s; only applications under review can be decided", d.ID(), st.Application.Status.Display())
	}
	return err
}
