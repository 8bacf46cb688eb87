package repository

import (
	"fmt"
	"time"

	"github.com/SundayYogurt/visa_admin/internal/domain"
)

type Seed struct {
	Applicants   []domain.Applicant
	Countries    []domain.Country
	VisaTypes    []domain.VisaType
	Applications []domain.Application
	Feedbacks    []domain.Feedback
}

// SeedData builds the sample review data the devserver starts with. Relations
// are referenced by id only.
func SeedData(now time.Time) Seed {
	s := Seed{
		Applicants: []domain.Applicant{
			{ID: 1, FullName: "Somchai Jaidee", Email: "somchai@example.com", PassportNumber: "AA1234567", Nationality: "Thai"},
			{ID: 2, FullName: "Nguyen Thi Lan", Email: "lan.nguyen@example.com", PassportNumber: "C7654321", Nationality: "Vietnamese"},
			{ID: 3, FullName: "Maria Santos", Email: "maria.santos@example.com", PassportNumber: "P0098812", Nationality: "Filipino"},
			{ID: 4, FullName: "Arjun Mehta", Email: "arjun.mehta@example.com", PassportNumber: "Z4455667", Nationality: "Indian"},
			{ID: 5, FullName: "Hana Kobayashi", Email: "hana.k@example.com", PassportNumber: "TK0021190", Nationality: "Japanese"},
		},
		Countries: []domain.Country{
			{ID: 1, CountryName: "Japan"},
			{ID: 2, CountryName: "Australia"},
			{ID: 3, CountryName: "Germany"},
		},
		VisaTypes: []domain.VisaType{
			{ID: 1, CountryID: 1, VisaName: "Temporary Visitor"},
			{ID: 2, CountryID: 2, VisaName: "Student (Subclass 500)"},
			{ID: 3, CountryID: 3, VisaName: "Schengen Tourist"},
			{ID: 4, CountryID: 2, VisaName: "Working Holiday"},
		},
	}

	statuses := []domain.ApplicationStatus{
		domain.ApplicationStatusUnderReview,
		domain.ApplicationStatusUnderReview,
		domain.ApplicationStatusPending,
		domain.ApplicationStatusApproved,
		domain.ApplicationStatusUnderReview,
		domain.ApplicationStatusRejected,
	}

	var docID uint = 1
	for i := 0; i < 17; i++ {
		id := uint(i + 1)
		applicant := s.Applicants[i%len(s.Applicants)]
		visa := s.VisaTypes[i%len(s.VisaTypes)]
		created := now.Add(-time.Duration(17-i) * 6 * time.Hour).UTC()

		app := domain.Application{
			ID:         id,
			Status:     statuses[i%len(statuses)],
			UserID:     applicant.ID,
			VisaTypeID: visa.ID,
			CountryID:  visa.CountryID,
			CreatedAt:  created,
			UpdatedAt:  created,
		}
		if app.Status.IsTerminal() {
			decided := created.Add(2 * time.Hour)
			app.DecisionDate = &decided
		}
		if app.Status == domain.ApplicationStatusRejected {
			reason := "Bank statement does not cover the last three months"
			app.RejectionReason = &reason
		}
		if i%3 != 2 {
			path := fmt.Sprintf("summaries/application_%d.pdf", id)
			app.AIPDFPath = &path
			app.SummaryPDF = SamplePDF(
				fmt.Sprintf("Application #%d summary", id),
				"Applicant: "+applicant.FullName,
				"Visa: "+visa.VisaName,
			)
		}

		for _, kind := range []string{"passport", "bank_statement", "photo"} {
			doc := domain.Document{
				ID:               docID,
				ApplicationID:    id,
				DocumentType:     kind,
				ValidationStatus: domain.ValidationStatusPending,
				CreatedAt:        created,
				UpdatedAt:        created,
			}
			mime := "application/pdf"
			doc.Content = SamplePDF(fmt.Sprintf("%s for application #%d", kind, id))
			if kind == "photo" {
				mime = "image/svg+xml"
				doc.Content = samplePhoto(applicant.FullName)
			}
			doc.MimeType = &mime
			if app.Status == domain.ApplicationStatusApproved {
				doc.ValidationStatus = domain.ValidationStatusValid
			}
			app.Documents = append(app.Documents, doc)
			docID++
		}

		s.Applications = append(s.Applications, app)
	}

	for i := 0; i < 9; i++ {
		visa := s.VisaTypes[i%len(s.VisaTypes)]
		s.Feedbacks = append(s.Feedbacks, domain.Feedback{
			ID:         uint(i + 1),
			UserID:     s.Applicants[i%len(s.Applicants)].ID,
			CountryID:  visa.CountryID,
			VisaTypeID: visa.ID,
			Rating:     5 - i%5,
			Comment:    fmt.Sprintf("Feedback %d, process took %d days", i+1, 3+i),
			CreatedAt:  now.Add(-time.Duration(i) * 24 * time.Hour).UTC(),
		})
	}
	return s
}

func samplePhoto(name string) []byte {
	return []byte(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="240" height="300">`+
		`<rect width="240" height="300" fill="#dde"/>`+
		`<text x="120" y="160" text-anchor="middle" font-family="sans-serif">%s</text></svg>`, name))
}
