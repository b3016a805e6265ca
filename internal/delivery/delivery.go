package delivery

import (
	"context"
	"errors"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"songforge/internal/logger"
	"songforge/internal/mailer"
	"songforge/internal/models"
	"songforge/internal/storage"
)

var ErrNoFullTrack = errors.New("order has no full track to deliver")

// UserGetter resolves the owner of an order to an email address.
type UserGetter interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Service fulfills a paid order: it renders a QR code pointing at the
// full track, uploads it, and emails the owner a delivery note.
type Service struct {
	Users    UserGetter
	Uploader storage.Uploader
	Mailer   mailer.Mailer
	logger   *logger.Logger
}

func NewService(users UserGetter, uploader storage.Uploader, m mailer.Mailer, log *logger.Logger) *Service {
	return &Service{Users: users, Uploader: uploader, Mailer: m, logger: log}
}

// Deliver runs the fulfillment steps for one paid order.
func (s *Service) Deliver(ctx context.Context, order models.Order) error {
	if order.FullURL == "" {
		return ErrNoFullTrack
	}

	user, err := s.Users.GetUser(ctx, order.OwnerID)
	if err != nil {
		return fmt.Errorf("owner %s not found: %w", order.OwnerID, err)
	}

	qrURL, err := s.uploadQR(order)
	if err != nil {
		// The email still carries the direct link, so a QR failure
		// degrades the delivery rather than blocking it.
		s.logger.Warn("DELIVERY", fmt.Sprintf("QR upload for order %s failed: %v", order.ID, err))
		qrURL = ""
	}

	body := fmt.Sprintf("Hi %s,\n\nYour personalized track for %s is ready.\n\nListen and download: %s\n",
		user.FullName, order.Honoree, order.FullURL)
	if qrURL != "" {
		body += fmt.Sprintf("\nShare it with a QR code: %s\n", qrURL)
	}

	if err := s.Mailer.Send(user.Email, "Your track is ready", body); err != nil {
		return fmt.Errorf("delivery mail for order %s failed: %w", order.ID, err)
	}

	s.logger.Info("DELIVERY", fmt.Sprintf("order %s delivered to %s", order.ID, user.Email))
	return nil
}

func (s *Service) uploadQR(order models.Order) (string, error) {
	png, err := qrcode.Encode(order.FullURL, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR: %w", err)
	}

	path := fmt.Sprintf("qr/%s.png", order.ID)
	return s.Uploader.Upload(path, "image/png", png)
}
