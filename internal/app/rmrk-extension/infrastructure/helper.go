package infrastructure

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const alertSubject = "rmrk-extension alert"

func NewHelper(config *Config) *Helper {
	return &Helper{config: *config}
}

type Helper struct {
	config Config
}

// SendMail sends an alert through SendGrid. Without an API key the alert is only logged.
func (h *Helper) SendMail(message string) error {
	if h.config.SendgridApiKey == "" {
		log.Warn().Msgf("sendgrid api key not set, alert not mailed: %s", message)
		return nil
	}

	from := mail.NewEmail("rmrk-extension", h.config.MailFromAddress)
	to := mail.NewEmail("", h.config.MailToAddress)
	email := mail.NewSingleEmail(from, alertSubject, to, message, message)

	response, err := sendgrid.NewSendClient(h.config.SendgridApiKey).Send(email)
	if err != nil {
		return err
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid responded with %d: %s", response.StatusCode, response.Body)
	}

	return nil
}
