package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type CertificateEmailData struct {
	To               string
	AttendeeName     string
	CourseName       string
	CertificateType  string
	DaysAttended     int
	TotalDays        int
	VerificationCode string
	VerifyURL        string
	CompanyName      string
	CompanyURL       string
}

var certificateTmpl = template.Must(template.New("certificate").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Helvetica, Arial, sans-serif; color: #1e3a5f;">
  <h2>Certificate of {{.Label}}</h2>
  <p>Dear {{.AttendeeName}},</p>
  <p>Congratulations! Your certificate for <strong>{{.CourseName}}</strong> is ready.
  You attended {{.DaysAttended}} of {{.TotalDays}} days.</p>
  <p>Verification code: <strong style="font-family: monospace;">{{.VerificationCode}}</strong></p>
  <p><a href="{{.VerifyURL}}">View and download your certificate</a></p>
  <p style="color: #666666; font-size: 12px;">{{if .CompanyURL}}<a href="{{.CompanyURL}}" style="color: #666666;">{{.CompanyName}}</a>{{else}}{{.CompanyName}}{{end}}</p>
</body>
</html>
`))

var labelCaser = cases.Title(language.English)

// CertificateEmail builds the notification sent when a certificate is issued.
func CertificateEmail(d CertificateEmailData) (Message, error) {
	label := labelCaser.String(d.CertificateType)
	var buf bytes.Buffer
	err := certificateTmpl.Execute(&buf, struct {
		CertificateEmailData
		Label string
	}{d, label})
	if err != nil {
		return Message{}, fmt.Errorf("render certificate email: %w", err)
	}
	return Message{
		To:      d.To,
		Subject: fmt.Sprintf("Your Certificate of %s - %s", label, d.CourseName),
		HTML:    buf.String(),
	}, nil
}
