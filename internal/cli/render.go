package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/SundayYogurt/visa_admin/internal/domain"
	"github.com/SundayYogurt/visa_admin/internal/services"
	"github.com/fatih/color"
)

const timeLayout = "2006-01-02 15:04"

func renderList(w io.Writer, v services.ListView) {
	if v.Loading {
		fmt.Fprintln(w, "Loading applications...")
		return
	}
	if len(v.Rows) == 0 {
		if v.Err != nil {
			fmt.Fprintln(w, "Applications could not be loaded. Change the search or status to retry.")
		} else {
			fmt.Fprintln(w, "No applications found.")
		}
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tAPPLICANT\tVISA\tCOUNTRY\tSTATUS\tSUBMITTED\tACTIONS")
	for _, row := range v.Rows {
		a := row.Application
		actions := "view"
		if row.CanDecide {
			actions = "view approve reject"
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Index, a.ID, a.ApplicantName(), a.VisaName(), a.CountryName(),
			statusBadge(a.Status), a.CreatedAt.Local().Format(timeLayout), actions)
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "Showing %d to %d of %d applications. Page %d of %d\n", v.First, v.Last, v.Total, v.Page, v.TotalPages)
}

func renderDetail(w io.Writer, st services.DetailState) {
	switch {
	case st.NotFound:
		fmt.Fprintln(w, "Application not found. Type `back` to return to the list.")
		return
	case st.Application == nil && st.Loading:
		fmt.Fprintln(w, "Loading application...")
		return
	case st.Application == nil:
		fmt.Fprintln(w, "Application details are unavailable.")
		return
	}

	a := st.Application
	bold := color.New(color.Bold)
	fmt.Fprintf(w, "%s  %s\n", bold.Sprintf("Application #%d", a.ID), statusBadge(a.Status))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Applicant\t%s\n", a.ApplicantName())
	if a.User != nil {
		fmt.Fprintf(tw, "Email\t%s\n", orNA(a.User.Email))
		fmt.Fprintf(tw, "Passport\t%s\n", orNA(a.User.PassportNumber))
		fmt.Fprintf(tw, "Nationality\t%s\n", orNA(a.User.Nationality))
	}
	fmt.Fprintf(tw, "Visa\t%s\n", a.VisaName())
	fmt.Fprintf(tw, "Country\t%s\n", a.CountryName())
	fmt.Fprintf(tw, "Submitted\t%s\n", a.CreatedAt.Local().Format(timeLayout))
	if a.DecisionDate != nil {
		fmt.Fprintf(tw, "Decided\t%s\n", a.DecisionDate.Local().Format(timeLayout))
	}
	if a.RejectionReason != nil && *a.RejectionReason != "" {
		fmt.Fprintf(tw, "Rejection reason\t%s\n", *a.RejectionReason)
	}
	if a.HasSummaryPDF() {
		fmt.Fprintf(tw, "Summary PDF\t%s%s\n", "available (pdf, download)", loadingMark(st, services.TargetPDFPreview, services.TargetPDFDownload))
	}
	_ = tw.Flush()

	fmt.Fprintln(w)
	if len(a.Documents) == 0 {
		fmt.Fprintln(w, "No documents uploaded.")
	} else {
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DOC\tTYPE\tVALIDATION\t")
		for _, d := range a.Documents {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", d.ID, docTypeLabel(d.DocumentType), validationBadge(d.ValidationStatus),
				loadingMark(st, services.DocumentTarget(d.ID)))
		}
		_ = tw.Flush()
	}

	fmt.Fprintln(w)
	if a.CanDecide() {
		fmt.Fprintln(w, "Actions: approve | reject | valid <doc> | invalid <doc> | view <doc> | pdf | download | back")
	} else {
		fmt.Fprintln(w, "Actions: view <doc> | pdf | download | back")
	}
}

func renderFeedbacks(w io.Writer, v services.FeedbackView) {
	if len(v.Rows) == 0 {
		if v.Err != nil {
			fmt.Fprintln(w, "Feedbacks could not be loaded.")
		} else {
			fmt.Fprintln(w, "No feedbacks found matching your criteria")
		}
		return
	}

	stars := color.New(color.FgYellow)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSER\tCOUNTRY\tVISA\tRATING\tCOMMENT\tDATE")
	for _, f := range v.Rows {
		user := domain.NotAvailable
		if f.User != nil {
			user = orNA(f.User.FullName)
		}
		country := domain.NotAvailable
		if f.Country != nil {
			country = orNA(f.Country.CountryName)
		}
		visa := domain.NotAvailable
		if f.VisaType != nil {
			visa = orNA(f.VisaType.VisaName)
		}
		comment := strings.TrimSpace(f.Comment)
		if comment == "" {
			comment = "No comment"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			f.ID, user, country, visa, stars.Sprint(ratingStars(f.Rating)), comment, f.CreatedAt.Local().Format(timeLayout))
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "%d feedbacks. Page %d of %d\n", v.Total, v.Page, v.LastPage)
}

// ratingStars draws a 1-5 rating as filled and empty stars.
func ratingStars(rating int) string {
	rating = max(0, min(rating, 5))
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

func loadingMark(st services.DetailState, targets ...string) string {
	for _, t := range st.InFlight {
		for _, want := range targets {
			if t == want {
				return "  (loading...)"
			}
		}
	}
	return ""
}

func docTypeLabel(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return domain.NotAvailable
	}
	return s
}
