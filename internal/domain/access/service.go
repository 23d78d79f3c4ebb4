package access

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"vaultshare/internal/domain/activity"
	"vaultshare/internal/domain/file"
	"vaultshare/internal/domain/notification"
	"vaultshare/internal/metrics"
	"vaultshare/internal/storage"
)

type fileRepository interface {
	GetByToken(ctx context.Context, token string) (*file.File, error)
	GetByID(ctx context.Context, id string) (*file.File, error)
	IncrementViews(ctx context.Context, id string) (bool, error)
}

// Request is one access attempt against a share link.
type Request struct {
	Token     string
	Identity  Identity
	Password  *string
	ClientIP  string
	UserAgent string
	Download  bool
}

// Result is the decision plus what the caller needs to act on it. Content
// is only set by ServeDecision on a grant.
type Result struct {
	Decision
	File    *file.File
	Content []byte
	// Counted is true when this access started a new session and the
	// file's view counter was incremented.
	Counted bool
}

// Meta is request metadata stored alongside a ledger entry.
type Meta struct {
	ClientIP  string
	UserAgent string
}

// LogsResult is an owner's view of a file's ledger.
type LogsResult struct {
	FileID   string         `json:"file_id"`
	Grouped  bool           `json:"grouped"`
	Total    int            `json:"total"`
	Logs     []AccessLog    `json:"logs,omitempty"`
	Sessions []GroupedEntry `json:"sessions,omitempty"`
}

// Service decides every access to a shared file and keeps the ledger and
// the view counter consistent with those decisions.
type Service struct {
	files     fileRepository
	ledger    Ledger
	blobs     storage.BlobStore
	notifier  notification.Notifier
	publisher activity.Publisher
	now       func() time.Time
}

func NewService(files fileRepository, ledger Ledger, blobs storage.BlobStore, notifier notification.Notifier, publisher activity.Publisher) *Service {
	return &Service{
		files:     files,
		ledger:    ledger,
		blobs:     blobs,
		notifier:  notifier,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ValidateAccess is a preflight: it decides and logs the attempt with method
// validate, which never opens a session or touches the view counter.
func (s *Service) ValidateAccess(ctx context.Context, req Request) (*Result, error) {
	f, err := s.resolve(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	now := s.now()

	dec, err := s.decide(ctx, f, req, now)
	if err != nil {
		return nil, err
	}

	entry := s.entry(f, req, dec, MethodValidate, now)
	if err := s.ledger.Record(ctx, entry); err != nil {
		return nil, fmt.Errorf("record access: %w", err)
	}
	s.observe(f, entry, false)

	return &Result{Decision: dec, File: f}, nil
}

// ServeDecision decides a view or download and, on a grant, loads the
// content, writes the ledger entry and counts a view when no session of
// this identity is active.
func (s *Service) ServeDecision(ctx context.Context, req Request) (*Result, error) {
	f, err := s.resolve(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	now := s.now()
	method := MethodView
	if req.Download {
		method = MethodDownload
	}

	dec, err := s.decide(ctx, f, req, now)
	if err != nil {
		return nil, err
	}
	if !dec.Allowed {
		entry := s.entry(f, req, dec, method, now)
		if err := s.ledger.Record(ctx, entry); err != nil {
			return nil, fmt.Errorf("record access: %w", err)
		}
		s.observe(f, entry, false)
		return &Result{Decision: dec, File: f}, nil
	}

	content, err := s.blobs.Get(ctx, f.StorageKey)
	if err != nil {
		log.Printf("access_blob_unavailable file_id=%s key=%s err=%v", f.ID, f.StorageKey, err)
		entry := s.entry(f, req, deny(ReasonUnavailable), method, now)
		if recErr := s.ledger.Record(ctx, entry); recErr != nil {
			log.Printf("access_log_failed file_id=%s reason=%s err=%v", f.ID, ReasonUnavailable, recErr)
		} else {
			s.observe(f, entry, false)
		}
		return &Result{Decision: deny(ReasonUnavailable), File: f}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// the session check must see the ledger as it was before this access
	last, err := s.ledger.LastGranted(ctx, f.ID, req.Identity)
	if err != nil {
		return nil, fmt.Errorf("load last access: %w", err)
	}
	active := last != nil && Windower{Duration: f.SessionWindow()}.Active(last.CreatedAt, now)

	entry := s.entry(f, req, dec, method, now)
	if err := s.ledger.Record(ctx, entry); err != nil {
		return nil, fmt.Errorf("record access: %w", err)
	}

	res := &Result{Decision: dec, File: f, Content: content}
	if !active {
		res.Counted = s.countView(ctx, f, req.Identity)
	}
	s.observe(f, entry, res.Counted)

	if res.Counted {
		s.notifier.Notify(ctx, notification.Event{
			Template: notification.TemplateFileAccessed,
			UserID:   f.UserID,
			FileID:   f.ID,
			Filename: f.OriginalFilename,
			Data: map[string]string{
				"access_type":     string(method),
				"viewer":          req.Identity.String(),
				"views_remaining": strconv.Itoa(f.ViewsRemaining()),
			},
		})
	}
	return res, nil
}

// countView applies the guarded increment. Failures never take back content
// that is already granted; they are logged as accounting degradation.
func (s *Service) countView(ctx context.Context, f *file.File, id Identity) bool {
	ok, err := s.files.IncrementViews(ctx, f.ID)
	if err != nil {
		metrics.AccountingDegraded.Inc()
		log.Printf("accounting_degraded file_id=%s identity=%s err=%v", f.ID, id.Key(), err)
		return false
	}
	if !ok {
		// another session took the last view between evaluation and increment
		log.Printf("view_limit_race file_id=%s identity=%s max_views=%d", f.ID, id.Key(), f.MaxViews)
		return false
	}
	f.CurrentViews++
	metrics.ViewsCounted.Inc()
	return true
}

// RecordAccess appends a raw entry. It is used for events the delivery
// layer observes itself, such as screenshot attempts.
func (s *Service) RecordAccess(ctx context.Context, fileID string, id Identity, granted bool, method Method, reason Reason, meta Meta) (*AccessLog, error) {
	l := newEntry(fileID, id, meta)
	l.Granted = granted
	l.Method = method
	l.FailureReason = reason
	l.CreatedAt = s.now()
	if err := s.ledger.Record(ctx, l); err != nil {
		return nil, fmt.Errorf("record access: %w", err)
	}
	return l, nil
}

// ReportScreenshot records a screenshot attempt against the file behind token.
func (s *Service) ReportScreenshot(ctx context.Context, token string, id Identity, meta Meta) error {
	f, err := s.resolve(ctx, token)
	if err != nil {
		return err
	}
	l, err := s.RecordAccess(ctx, f.ID, id, false, MethodScreenshotAttempt, ReasonNone, meta)
	if err != nil {
		return err
	}
	metrics.ScreenshotAttempts.Inc()
	log.Printf("screenshot_attempt file_id=%s identity=%s user_agent=%q", f.ID, id.Key(), meta.UserAgent)
	s.publish(f, l, false)
	return nil
}

// AccessLogs returns the ledger of a file to its owner, either raw or
// grouped into sessions.
func (s *Service) AccessLogs(ctx context.Context, ownerID int64, fileID string, grouped bool) (*LogsResult, error) {
	f, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, file.ErrFileNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if f.UserID != ownerID {
		return nil, ErrForbidden
	}

	logs, err := s.ledger.Query(ctx, f.ID, Filter{})
	if err != nil {
		return nil, fmt.Errorf("query access logs: %w", err)
	}

	res := &LogsResult{FileID: f.ID, Grouped: grouped}
	if grouped {
		res.Sessions = Windower{Duration: f.SessionWindow()}.Group(logs)
		res.Total = len(res.Sessions)
		return res, nil
	}
	res.Logs = logs
	res.Total = len(logs)
	return res, nil
}

func (s *Service) resolve(ctx context.Context, token string) (*file.File, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	f, err := s.files.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, file.ErrFileNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load file: %w", err)
	}
	return f, nil
}

// decide runs the evaluator, loading the identity's history only when the
// per-consumer cap needs it, then applies the download switch.
func (s *Service) decide(ctx context.Context, f *file.File, req Request, now time.Time) (Decision, error) {
	in := Input{Identity: req.Identity, Password: req.Password, Now: now}
	if f.MaxViewsPerConsumer > 0 {
		hist, err := s.history(ctx, f.ID, req.Identity)
		if err != nil {
			return Decision{}, err
		}
		in.History = hist
	}

	dec := Evaluate(f, in)
	if dec.Allowed && req.Download && f.DisableDownload {
		return deny(ReasonDownloadDisabled), nil
	}
	return dec, nil
}

func (s *Service) history(ctx context.Context, fileID string, id Identity) ([]time.Time, error) {
	logs, err := s.ledger.Query(ctx, fileID, Filter{
		Identity:    &id,
		GrantedOnly: true,
		Methods:     contentMethods,
	})
	if err != nil {
		return nil, fmt.Errorf("load access history: %w", err)
	}
	ts := make([]time.Time, len(logs))
	for i := range logs {
		ts[i] = logs[i].CreatedAt
	}
	return ts, nil
}

func (s *Service) entry(f *file.File, req Request, dec Decision, method Method, now time.Time) *AccessLog {
	l := newEntry(f.ID, req.Identity, Meta{ClientIP: req.ClientIP, UserAgent: req.UserAgent})
	l.Granted = dec.Allowed
	l.Method = method
	l.FailureReason = dec.Reason
	l.CreatedAt = now
	return l
}

// newEntry fills the identity columns. The client IP is kept for every
// row, but only anonymous rows are keyed by it.
func newEntry(fileID string, id Identity, meta Meta) *AccessLog {
	l := &AccessLog{
		FileID:    fileID,
		ClientIP:  meta.ClientIP,
		UserAgent: truncate(meta.UserAgent, 500),
	}
	if id.IsSignedIn() {
		cid := id.ConsumerID()
		l.ConsumerID = &cid
	} else {
		l.ClientIP = id.IP()
	}
	return l
}

func (s *Service) observe(f *file.File, l *AccessLog, counted bool) {
	reason := string(l.FailureReason)
	if l.Granted {
		reason = "granted"
	}
	metrics.AccessDecisions.WithLabelValues(string(l.Method), reason).Inc()
	if !l.Granted {
		log.Printf("access_denied file_id=%s method=%s reason=%s identity=%s", f.ID, l.Method, l.FailureReason, l.Identity().Key())
	}
	s.publish(f, l, counted)
}

func (s *Service) publish(f *file.File, l *AccessLog, counted bool) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(f.UserID, activity.Event{
		FileID:    f.ID,
		Filename:  f.OriginalFilename,
		Method:    string(l.Method),
		Granted:   l.Granted,
		Reason:    string(l.FailureReason),
		Counted:   counted,
		Viewer:    l.Identity().String(),
		ViewsLeft: f.ViewsRemaining(),
		At:        l.CreatedAt,
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
