package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"alcyxob/photo-portfolio/internal/domain"
	"alcyxob/photo-portfolio/internal/repository"

	"github.com/sirupsen/logrus"
)

var ErrInvalidMessage = errors.New("name, email and message are required")

// MaxMessageLength bounds the body of a contact message.
const MaxMessageLength = 5000

// ContactService stores contact form submissions for the admin to read.
type ContactService interface {
	Submit(ctx context.Context, msg domain.ContactMessage) (*domain.ContactMessage, error)
	List(ctx context.Context, limit int64) ([]domain.ContactMessage, error)
}

type contactService struct {
	contactRepo repository.ContactRepository
	log         *logrus.Entry
}

// NewContactService creates the contact service.
func NewContactService(contactRepo repository.ContactRepository, log *logrus.Logger) ContactService {
	return &contactService{contactRepo: contactRepo, log: log.WithField("component", "contact")}
}

func (s *contactService) Submit(ctx context.Context, msg domain.ContactMessage) (*domain.ContactMessage, error) {
	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.TrimSpace(msg.Email)
	msg.Subject = strings.TrimSpace(msg.Subject)
	msg.Message = strings.TrimSpace(msg.Message)
	if msg.Name == "" || !strings.Contains(msg.Email, "@") || msg.Message == "" || len(msg.Message) > MaxMessageLength {
		return nil, ErrInvalidMessage
	}

	id, err := s.contactRepo.Create(ctx, &msg)
	if err != nil {
		return nil, fmt.Errorf("store contact message: %w", err)
	}
	msg.ID = id
	s.log.WithField("id", id.Hex()).Info("contact message received")
	return &msg, nil
}

func (s *contactService) List(ctx context.Context, limit int64) ([]domain.ContactMessage, error) {
	messages, err := s.contactRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	return messages, nil
}
