package utils

import (
	"fmt"
	"log"
	"quizapp/config"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendEmail sends an HTML email through SendGrid. Callers fire this from a
// goroutine so a slow mail API never blocks a request or a transaction.
func SendEmail(toName, toEmail, subject, htmlBody string) error {
	if config.AppConfig.SendGridApiKey == "" {
		log.Printf("SENDGRID_API_KEY not set, skipping email to %s", toEmail)
		return nil
	}

	from := mail.NewEmail("Testing Platform", config.AppConfig.EmailSender)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, "", htmlBody)

	client := sendgrid.NewSendClient(config.AppConfig.SendGridApiKey)
	resp, err := client.Send(message)
	if err != nil {
		log.Printf("Error sending email to %s: %v", toEmail, err)
		return err
	}
	if resp.StatusCode >= 400 {
		log.Printf("SendGrid rejected email to %s: %d %s", toEmail, resp.StatusCode, resp.Body)
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	return nil
}

// SendWelcomeEmail greets a freshly registered user
func SendWelcomeEmail(name, email string) {
	body := fmt.Sprintf(`
		<html>
			<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
				<div style="max-width: 500px; margin: auto; background-color: #ffffff; border-radius: 8px; padding: 30px;">
					<h2>Welcome, %s!</h2>
					<p>Your account on Testing Platform is ready. Log in to browse the test catalogue and start your first attempt.</p>
				</div>
			</body>
		</html>`, name)

	if err := SendEmail(name, email, "Welcome to Testing Platform", body); err != nil {
		log.Printf("Failed to send welcome email to %s: %v", email, err)
	}
}

// SendResultEmail congratulates a user who passed a test
func SendResultEmail(name, email, testTitle string, score float64) {
	body := fmt.Sprintf(`
		<html>
			<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
				<div style="max-width: 500px; margin: auto; background-color: #ffffff; border-radius: 8px; padding: 30px;">
					<h2>Congratulations, %s!</h2>
					<p>You passed <b>%s</b> with a score of <b>%.2f%%</b>.</p>
					<p>Check the results page for the full question-by-question review.</p>
				</div>
			</body>
		</html>`, name, testTitle, score)

	if err := SendEmail(name, email, fmt.Sprintf("You passed %s!", testTitle), body); err != nil {
		log.Printf("Failed to send result email to %s: %v", email, err)
	}
}
