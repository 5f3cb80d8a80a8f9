package services

import (
	"fmt"
	"html/template"
	"os"
	"slices"
	"strings"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/wheelchair-racer/wr_api/clock"
	"github.com/wheelchair-racer/wr_api/dto"
	"github.com/wheelchair-racer/wr_api/model"
	"github.com/wheelchair-racer/wr_api/ratelimit"
	"github.com/wheelchair-racer/wr_api/sanitize"
	"github.com/wheelchair-racer/wr_api/shared"
)

const (
	CONTACT_SVC = "contact_svc"

	defaultContactCategory  = "general"
	defaultContactRecipient = "contact@wheelchairracer.com"
)

type ContactService struct {
	context.DefaultService

	recipient string
	store     ContactStore
	mailer    Mailer
	limiter   Throttle
	clock     clock.Clock
}

func (svc ContactService) Id() string {
	return CONTACT_SVC
}

func (svc *ContactService) Configure(ctx *context.Context) error {
	svc.recipient = getEnv("CONTACT_RECIPIENT", defaultContactRecipient)
	svc.clock = clock.NewSystemClock()
	return svc.DefaultService.Configure(ctx)
}

func (svc *ContactService) Start() error {
	svc.store = svc.Service(POSTGRES_SVC).(*PostgresService).Contacts()
	svc.mailer = svc.Service(EMAIL_SVC).(*EmailService)
	svc.limiter = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)

	if os.Getenv("CONTACT_RECIPIENT") == "" {
		log.WithField("recipient", svc.recipient).Info("CONTACT_RECIPIENT not set, using default")
	}
	return nil
}

// Submit stores a contact form message and forwards it to the site inbox.
func (svc *ContactService) Submit(req dto.ContactRequest) (*dto.ContactResponse, error) {
	email := sanitize.Email(req.Email)
	if email == "" {
		return nil, shared.NewBadRequestError(nil, "Invalid email address")
	}

	name := strings.TrimSpace(req.Name)
	subject := strings.TrimSpace(req.Subject)
	message := strings.TrimSpace(req.Message)
	if name == "" || subject == "" || message == "" {
		return nil, shared.NewBadRequestError(nil, "All fields are required")
	}

	category := strings.ToLower(strings.TrimSpace(req.Category))
	if category == "" {
		category = defaultContactCategory
	}
	if !slices.Contains(dto.ContactCategories, category) {
		return nil, shared.NewBadRequestError(nil, "Invalid category")
	}

	if err := svc.limiter.Allow(ratelimit.ContactForm, email); err != nil {
		return nil, err
	}
	if err := svc.limiter.Allow(ratelimit.EmailSend, email); err != nil {
		return nil, err
	}

	msg := &model.ContactMessage{
		Name:      strings.TrimSpace(sanitize.Input(name)),
		Email:     email,
		Subject:   strings.TrimSpace(sanitize.Input(subject)),
		Message:   strings.TrimSpace(sanitize.Input(message)),
		Category:  category,
		CreatedAt: svc.clock.Now(),
	}
	if msg.Name == "" || msg.Subject == "" || msg.Message == "" {
		return nil, shared.NewBadRequestError(nil, "All fields are required")
	}

	if err := svc.store.CreateContactMessage(msg); err != nil {
		return nil, err
	}

	data := ContactEmailData{
		AppName:  shared.AppName,
		Name:     template.HTML(msg.Name),
		Email:    email,
		Category: template.HTML(sanitize.Input(category)),
		Subject:  template.HTML(msg.Subject),
		Message:  template.HTML(msg.Message),
	}
	if err := svc.mailer.SendContactMessage(svc.recipient, contactSubject(category, subject), data); err != nil {
		log.WithError(err).WithField("contact_id", msg.ID).Error("Failed to forward contact message")
		return nil, shared.NewInternalError(err, "Failed to send message")
	}

	if err := svc.store.MarkDelivered(msg.ID); err != nil {
		log.WithError(err).WithField("contact_id", msg.ID).Warn("Failed to mark contact message delivered")
	}

	svc.limiter.Clear(ratelimit.ContactForm, email)

	return &dto.ContactResponse{ID: msg.ID, Success: true}, nil
}

var headerBreaks = strings.NewReplacer("\r", " ", "\n", " ")

func contactSubject(category, subject string) string {
	return fmt.Sprintf("[%s] %s", strings.ToUpper(category), headerBreaks.Replace(subject))
}
