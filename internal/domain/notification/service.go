package notification

import (
	"context"
	"log"
	"time"

	"vaultshare/internal/domain/auth"
	"vaultshare/internal/metrics"
)

// Notifier accepts notification events. Implementations must not block the caller on delivery.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

type userLookup interface {
	GetByID(ctx context.Context, id int64) (*auth.User, error)
}

// Service renders, delivers and records notifications synchronously.
type Service struct {
	repo   Repository
	users  userLookup
	sender Sender
	now    func() time.Time
}

func NewService(repo Repository, users userLookup, sender Sender) *Service {
	return &Service{repo: repo, users: users, sender: sender, now: time.Now}
}

// Send delivers ev and stores the outcome. A failed delivery is recorded
// with status failed and returned.
func (s *Service) Send(ctx context.Context, ev Event) error {
	to := ev.Recipient
	if to == "" {
		if ev.UserID == 0 {
			return ErrNoRecipient
		}
		user, err := s.users.GetByID(ctx, ev.UserID)
		if err != nil {
			return err
		}
		to = user.Email
	}

	msg, err := render(ev)
	if err != nil {
		return err
	}

	record := &EmailNotification{
		UserID:    ev.UserID,
		FileID:    ev.FileID,
		Recipient: to,
		Template:  ev.Template,
		Subject:   msg.Subject,
	}

	messageID, sendErr := s.sender.Send(ctx, Email{To: to, Subject: msg.Subject, HTML: msg.HTML})
	if sendErr != nil {
		record.Status = StatusFailed
		record.ErrorMessage = sendErr.Error()
	} else {
		now := s.now()
		record.Status = StatusSent
		record.MessageID = messageID
		record.SentAt = &now
	}
	metrics.NotificationsSent.WithLabelValues(string(ev.Template), string(record.Status)).Inc()

	if err := s.repo.Create(ctx, record); err != nil {
		log.Printf("notification_record_failed template=%s file_id=%s err=%v", ev.Template, ev.FileID, err)
	}
	return sendErr
}

func (s *Service) ListForUser(ctx context.Context, userID int64, limit int) ([]EmailNotification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByUser(ctx, userID, limit)
}

// Notify sends ev inline and logs failures. cmd/cleanup uses it where no
// background worker is running.
func (s *Service) Notify(ctx context.Context, ev Event) {
	if err := s.Send(ctx, ev); err != nil {
		log.Printf("notification_send_failed template=%s user_id=%d file_id=%s err=%v", ev.Template, ev.UserID, ev.FileID, err)
	}
}
