package email

import (
	"bytes"
	"embed"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Mail subjects
const (
	SubjectVerification = "Email Verification"
	SubjectPasswordRst  = "Password Reset Code"
	SubjectParental     = "Parent Password Change Verification"
	SubjectSubscription = "Subscription Confirmation"
)

type codeData struct {
	Code int
}

type subscriptionData struct {
	Plan     string
	Duration string
	Time     string
}

// RenderVerification renders the email-verification mail body
func RenderVerification(code int) (string, error) {
	return render("verify_email.html", codeData{Code: code})
}

// RenderPasswordReset renders the password-reset mail body
func RenderPasswordReset(code int) (string, error) {
	return render("reset_password.html", codeData{Code: code})
}

// RenderParentPassword renders the parental-password-change mail body
func RenderParentPassword(code int) (string, error) {
	return render("parent_password.html", codeData{Code: code})
}

// RenderSubscriptionConfirm renders the subscription-confirmation mail body
func RenderSubscriptionConfirm(plan, duration string, expire time.Time) (string, error) {
	return render("subscription_confirm.html", subscriptionData{
		Plan:     plan,
		Duration: duration,
		Time:     expire.Format("2006-01-02 15:04:05"),
	})
}

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
