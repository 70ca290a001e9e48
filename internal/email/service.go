package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/model"
)

type Service interface {
	SendDailyDigest(ctx context.Context, to, clinicName string, income *model.DailyIncome) error
}

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPService struct {
	sender Sender
	from   string
}

func NewSMTPService(cfg config.SMTPConfig) *SMTPService {
	return NewService(gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password), cfg.From)
}

func NewService(sender Sender, from string) *SMTPService {
	return &SMTPService{sender: sender, from: from}
}

func (s *SMTPService) SendDailyDigest(ctx context.Context, to, clinicName string, income *model.DailyIncome) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	day := income.Date.Format(time.DateOnly)
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("%s: income for %s", clinicName, day))
	m.SetBody("text/plain", DigestBody(clinicName, income))

	if err := s.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send digest to %s: %w", to, err)
	}
	return nil
}

// DigestBody renders the plain-text digest.
func DigestBody(clinicName string, income *model.DailyIncome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily income for %s on %s\n\n", clinicName, income.Date.Format(time.DateOnly))
	fmt.Fprintf(&b, "Visits:           %d\n", income.VisitCount)
	fmt.Fprintf(&b, "Cash income:      %s\n", income.CashIncome.StringFixed(model.MoneyPlaces))
	fmt.Fprintf(&b, "Insurance income: %s\n", income.InsuranceIncome.StringFixed(model.MoneyPlaces))
	fmt.Fprintf(&b, "Total income:     %s\n", income.TotalIncome.StringFixed(model.MoneyPlaces))
	return b.String()
}
