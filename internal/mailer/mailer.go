// Package mailer sends booking notification emails over SMTP.  The
// consumer hands it reservation events; each event kind maps to an
// HTML template rendered with the event payload.  When no SMTP host is
// configured the mailer runs disabled and Send becomes a logged no-op,
// which keeps local development working without a mail server.
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"net/smtp"

	"github.com/condortrails/tour-booking-api/internal/queue"
)

// Config carries SMTP connection settings and the sender identity.
type Config struct {
	Host      string
	Port      string
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// Mailer renders and delivers notification emails.
type Mailer struct {
	cfg       Config
	templates map[string]*template.Template
}

// New constructs a Mailer with the built-in templates parsed.  Parsing
// happens once at startup so a malformed template fails fast.
func New(cfg Config) *Mailer {
	m := &Mailer{
		cfg:       cfg,
		templates: make(map[string]*template.Template),
	}
	m.loadTemplates()
	return m
}

// Enabled reports whether the mailer has an SMTP host to talk to.
func (m *Mailer) Enabled() bool {
	return m.cfg.Host != ""
}

// SendReservationEmail delivers the customer-facing email for a
// reservation event.  The template is chosen by the event kind.
func (m *Mailer) SendReservationEmail(ev queue.ReservationEvent) error {
	subject, ok := subjectFor(ev)
	if !ok {
		return fmt.Errorf("mailer: unknown event kind %q", ev.Kind)
	}
	body, err := m.Render(ev.Kind, ev)
	if err != nil {
		return err
	}
	return m.send(ev.CustomerEmail, subject, body)
}

// SendOperatorAlert delivers the internal heads-up email sent to the
// operator inbox when a new pre-reservation arrives.
func (m *Mailer) SendOperatorAlert(to string, ev queue.ReservationEvent) error {
	subject := fmt.Sprintf("New pre-reservation #%d: %s", ev.ReservationID, ev.TourName)
	body, err := m.Render("operator_alert", ev)
	if err != nil {
		return err
	}
	return m.send(to, subject, body)
}

// Render executes the named template against the event and returns the
// HTML body.  Exposed separately so templates can be tested without an
// SMTP server.
func (m *Mailer) Render(name string, ev queue.ReservationEvent) (string, error) {
	tmpl, ok := m.templates[name]
	if !ok {
		return "", fmt.Errorf("mailer: template %q not found", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, templateData(ev)); err != nil {
		return "", fmt.Errorf("mailer: render %q: %w", name, err)
	}
	return buf.String(), nil
}

func subjectFor(ev queue.ReservationEvent) (string, bool) {
	switch ev.Kind {
	case queue.EventReservationCreated:
		return fmt.Sprintf("We received your reservation for %s", ev.TourName), true
	case queue.EventReservationConfirmed:
		return fmt.Sprintf("Your reservation for %s is confirmed", ev.TourName), true
	case queue.EventReservationCancelled:
		return fmt.Sprintf("Your reservation for %s was cancelled", ev.TourName), true
	}
	return "", false
}

// mailData is the shape templates render against.  Amounts arrive in
// cents and are formatted to decimal strings here so templates stay
// free of arithmetic.
type mailData struct {
	queue.ReservationEvent
	TotalAmount  string
	RefundAmount string
	HasRefund    bool
}

func templateData(ev queue.ReservationEvent) mailData {
	d := mailData{
		ReservationEvent: ev,
		TotalAmount:      fmt.Sprintf("%.2f %s", float64(ev.TotalAmountCents)/100, ev.Currency),
	}
	if ev.RefundAmountCents != nil {
		d.HasRefund = true
		d.RefundAmount = fmt.Sprintf("%.2f %s", float64(*ev.RefundAmountCents)/100, ev.Currency)
	}
	return d
}

// send delivers one message via SMTP.  Disabled mailers log and drop.
func (m *Mailer) send(to, subject, htmlBody string) error {
	if !m.Enabled() {
		log.Printf("mailer: disabled, dropping %q to %s", subject, to)
		return nil
	}
	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n",
		m.cfg.FromName, m.cfg.FromEmail, to, subject, htmlBody)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := m.cfg.Host + ":" + m.cfg.Port
	if err := smtp.SendMail(addr, auth, m.cfg.FromEmail, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", to, err)
	}
	return nil
}

func (m *Mailer) loadTemplates() {
	m.templates[queue.EventReservationCreated] = template.Must(template.New("created").Parse(`
<p>Hello {{.CustomerName}},</p>
<p>We received your reservation for <strong>{{.TourName}}</strong>.</p>
<ul>
  <li>Departure: {{.StartDate}} to {{.EndDate}}</li>
  <li>Travellers: {{.PartySize}}</li>
  <li>Total: {{.TotalAmount}}</li>
</ul>
<p>Your seats are held while we verify your payment.  You will receive a
confirmation email once the booking is confirmed.</p>
`))
	m.templates[queue.EventReservationConfirmed] = template.Must(template.New("confirmed").Parse(`
<p>Hello {{.CustomerName}},</p>
<p>Your reservation <strong>#{{.ReservationID}}</strong> for
<strong>{{.TourName}}</strong> is confirmed. See you on {{.StartDate}}!</p>
<ul>
  <li>Departure: {{.StartDate}} to {{.EndDate}}</li>
  <li>Travellers: {{.PartySize}}</li>
  <li>Paid: {{.TotalAmount}}</li>
</ul>
`))
	m.templates[queue.EventReservationCancelled] = template.Must(template.New("cancelled").Parse(`
<p>Hello {{.CustomerName}},</p>
<p>Your reservation <strong>#{{.ReservationID}}</strong> for
<strong>{{.TourName}}</strong> ({{.StartDate}}) has been cancelled.</p>
{{if .HasRefund}}<p>Refund issued: {{.RefundAmount}}.</p>{{end}}
{{if .CancelReason}}<p>Reason: {{.CancelReason}}</p>{{end}}
`))
	m.templates["operator_alert"] = template.Must(template.New("operator_alert").Parse(`
<p>New pre-reservation <strong>#{{.ReservationID}}</strong></p>
<ul>
  <li>Tour: {{.TourName}} ({{.StartDate}} to {{.EndDate}})</li>
  <li>Customer: {{.CustomerName}} &lt;{{.CustomerEmail}}&gt;{{if .CustomerPhone}}, {{.CustomerPhone}}{{end}}</li>
  <li>Travellers: {{.PartySize}}</li>
  <li>Total: {{.TotalAmount}}</li>
  {{if .Comments}}<li>Comments: {{.Comments}}</li>{{end}}
</ul>
<p>Verify the payment and confirm or cancel the reservation from the
admin panel.</p>
`))
}
