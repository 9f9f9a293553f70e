// Package sender отправляет участникам письма о событиях их абонемента.
package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/gym-membership/internal/lib/sl"
	"github.com/magabrotheeeer/gym-membership/internal/lib/smtp"
	"github.com/magabrotheeeer/gym-membership/internal/models"
	"github.com/magabrotheeeer/gym-membership/internal/rabbitmq"
)

// SenderService формирует и отправляет письма по событиям из очередей уведомлений.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(log *slog.Logger, transport smtp.TransportInterface) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// Handlers сопоставляет очереди уведомлений с обработчиками.
func (s *SenderService) Handlers() map[string]rabbitmq.Handler {
	return map[string]rabbitmq.Handler{
		"notifications.pass_created":     s.SendPassCreated,
		"notifications.pass_charged":     s.SendPassCharged,
		"notifications.pass_deactivated": s.SendPassDeactivated,
	}
}

// SendPassCreated письмо о покупке абонемента.
func (s *SenderService) SendPassCreated(_ context.Context, body []byte) error {
	event, err := s.decode(body)
	if err != nil {
		return err
	}
	subject := "Абонемент оформлен"
	text := fmt.Sprintf("Здравствуйте, %s!\n\nАбонемент «%s» оформлен. Списано %s.\nСледующее списание %s, абонемент действует до %s.",
		event.FirstName, event.Title, event.Amount.StringFixed(2),
		event.NextDate.Format(time.DateOnly), event.DateEnd.Format(time.DateOnly))
	return s.sendEmail([]string{event.Email}, subject, text)
}

// SendPassCharged письмо о ежемесячном списании.
func (s *SenderService) SendPassCharged(_ context.Context, body []byte) error {
	event, err := s.decode(body)
	if err != nil {
		return err
	}
	subject := "Ежемесячное списание по абонементу"
	text := fmt.Sprintf("Здравствуйте, %s!\n\nПо абонементу «%s» списано %s.\nСледующее списание %s.",
		event.FirstName, event.Title, event.Amount.StringFixed(2), event.NextDate.Format(time.DateOnly))
	return s.sendEmail([]string{event.Email}, subject, text)
}

// SendPassDeactivated письмо о завершении абонемента.
func (s *SenderService) SendPassDeactivated(_ context.Context, body []byte) error {
	event, err := s.decode(body)
	if err != nil {
		return err
	}
	var reason string
	switch event.Reason {
	case models.ReasonPaymentFailed:
		reason = "не удалось списать оплату: карта не сохранена или срок её действия истёк"
	case models.ReasonExpired:
		reason = "закончился срок действия"
	default:
		reason = string(event.Reason)
	}
	subject := "Абонемент завершён"
	text := fmt.Sprintf("Здравствуйте, %s!\n\nАбонемент «%s» завершён: %s.\nЗаписи на будущие групповые занятия отменены.",
		event.FirstName, event.Title, reason)
	return s.sendEmail([]string{event.Email}, subject, text)
}

// decode разбирает событие. Сообщение, которое не разобрать, повторно не доставляется.
func (s *SenderService) decode(body []byte) (*models.PassEvent, error) {
	var event models.PassEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return nil, fmt.Errorf("%w: error unmarshalling message: %s", rabbitmq.ErrPermanent, err.Error())
	}
	if event.Email == "" {
		return nil, fmt.Errorf("%w: message without recipient", rabbitmq.ErrPermanent)
	}
	return &event, nil
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	from := s.transport.Sender()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to), slog.String("subject", subject))
	return nil
}
