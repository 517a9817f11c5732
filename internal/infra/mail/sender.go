package mail

import (
	"bytes"
	"fmt"
	"text/template"

	"gopkg.in/gomail.v2"
)

var alertTemplate = template.Must(template.New("commitment_alert").Parse(`
<h2>Pipeline update</h2>
<p><strong>{{.LeadName}}</strong> just reached <strong>{{.StageLabel}}</strong> (stage {{.Stage}}).</p>
<p>Time to line up the kickoff checklist.</p>
`))

type alertData struct {
	LeadName   string
	Stage      int
	StageLabel string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	AlertTo  string
}

func NewEmailSender(host string, port int, user, password, from, alertTo string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		AlertTo:  alertTo,
	}
}

// SendCommitmentAlert mails the team when a lead enters Commitment or later.
func (s *EmailSender) SendCommitmentAlert(leadName string, stage int, stageLabel string) error {
	var body bytes.Buffer
	err := alertTemplate.Execute(&body, alertData{
		LeadName:   leadName,
		Stage:      stage,
		StageLabel: stageLabel,
	})
	if err != nil {
		return fmt.Errorf("failed to render alert template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.AlertTo)
	m.SetHeader("Subject", fmt.Sprintf("🚀 %s reached %s", leadName, stageLabel))
	m.SetBody("text/html", body.String())

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send SMTP email: %w", err)
	}

	return nil
}
