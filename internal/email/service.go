package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/smtp"
	"time"

	"gymcore/internal/logger"
	"gymcore/internal/metrics"
	"gymcore/internal/plan"
	"gymcore/internal/user"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey       = "emails"
	failedQueueKey = "emails:failed"
	maxTries       = 3
	retryDelay     = 5 * time.Second
	timeLayout     = "Jan 2, 2006 at 3:04 PM"
)

// Email kinds, used as the metrics label.
const (
	KindMembershipApproved = "membership_approved"
	KindMembershipRejected = "membership_rejected"
	KindMembershipExpired  = "membership_expired"
	KindSessionBooked      = "session_confirmation"
	KindSessionCancelled   = "session_cancellation"
)

type EmailJob struct {
	Kind    string    `json:"kind"`
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

type Config struct {
	From     string
	FromName string
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
}

// Service queues outgoing mail in a Redis list and delivers it over SMTP
// from a single worker.
type Service struct {
	redis *redis.Client
	cfg   Config
	send  func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func New(cfg Config, redisAddr string) *Service {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: redisAddr}), cfg)
}

func NewWithClient(rdb *redis.Client, cfg Config) *Service {
	return &Service{redis: rdb, cfg: cfg, send: smtp.SendMail}
}

func (s *Service) Send(ctx context.Context, kind, to, name, subject, body string) error {
	job := EmailJob{
		Kind:    kind,
		To:      to,
		Name:    name,
		Subject: subject,
		Body:    body,
		Created: time.Now().UTC(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal email job: %w", err)
	}

	if err := s.redis.LPush(ctx, queueKey, string(data)).Err(); err != nil {
		metrics.RecordEmail(kind, "queue_failed")
		logger.Error("failed to queue email", "to", to, "kind", kind, "error", err)
		return err
	}

	logger.Info("email queued", "to", to, "kind", kind)
	return nil
}

// Start runs the delivery worker until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	logger.Info("email worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("email worker stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			logger.WithError(err).Warn("email queue read failed")
		}
		return
	}

	var job EmailJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("bad email payload: %v", err)
		return
	}

	s.deliver(ctx, job)
	metrics.EmailQueueLength.Set(float64(s.QueueLength(ctx)))
}

func (s *Service) deliver(ctx context.Context, job EmailJob) {
	job.Tries++
	err := s.sendNow(job)
	if err == nil {
		metrics.RecordEmail(job.Kind, "success")
		logger.Info("email sent", "to", job.To, "kind", job.Kind, "attempt", job.Tries)
		return
	}

	logger.Error("email delivery failed", "to", job.To, "kind", job.Kind, "attempt", job.Tries, "error", err)

	if job.Tries >= maxTries {
		metrics.RecordEmail(job.Kind, "failed")
		s.saveFailed(ctx, job, err)
		return
	}

	select {
	case <-ctx.Done():
	case <-time.After(retryDelay):
	}

	data, _ := json.Marshal(job)
	if err := s.redis.LPush(context.WithoutCancel(ctx), queueKey, string(data)).Err(); err != nil {
		logger.WithError(err).Error("failed to requeue email", "to", job.To)
	}
}

func (s *Service) sendNow(job EmailJob) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.cfg.FromName, s.cfg.From)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.cfg.SMTPUser != "" && s.cfg.SMTPPass != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)
	}

	addr := s.cfg.SMTPHost + ":" + s.cfg.SMTPPort
	return s.send(addr, auth, s.cfg.From, []string{job.To}, []byte(message))
}

func (s *Service) saveFailed(ctx context.Context, job EmailJob, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now().UTC(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.WithoutCancel(ctx), failedQueueKey, string(data))
	logger.Error("email moved to failed queue", "to", job.To, "kind", job.Kind)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}

func (s *Service) MembershipApproved(ctx context.Context, u *user.User, p *plan.Plan) error {
	var until string
	if u.MembershipEndDate != nil {
		until = u.MembershipEndDate.Format(timeLayout)
	}
	body := fmt.Sprintf(`Hi %s,

Your %s membership has been approved.

Valid until: %s

See you at the gym!

- GymCore Team`, u.Name, p.Name, until)

	return s.Send(ctx, KindMembershipApproved, u.Email, u.Name, "Membership approved - "+p.Name, body)
}

func (s *Service) MembershipRejected(ctx context.Context, u *user.User, reason string) error {
	if reason == "" {
		reason = "no reason given"
	}
	body := fmt.Sprintf(`Hi %s,

Unfortunately your membership request was not approved.

Reason: %s

You can select a plan again at any time.

- GymCore Team`, u.Name, reason)

	return s.Send(ctx, KindMembershipRejected, u.Email, u.Name, "Membership request declined", body)
}

func (s *Service) MembershipExpired(ctx context.Context, u *user.User) error {
	body := fmt.Sprintf(`Hi %s,

Your membership has expired. You can request a renewal of the same plan
from your account page.

- GymCore Team`, u.Name)

	return s.Send(ctx, KindMembershipExpired, u.Email, u.Name, "Membership expired", body)
}

func (s *Service) SessionBooked(ctx context.Context, member, trainer *user.User, at time.Time) error {
	body := fmt.Sprintf(`Hi %s,

Your personal training session is confirmed!

Trainer: %s
Time: %s

See you at the gym!

- GymCore Team`, member.Name, trainer.Name, at.Format(timeLayout))

	return s.Send(ctx, KindSessionBooked, member.Email, member.Name, "Session confirmed - "+trainer.Name, body)
}

func (s *Service) SessionCancelled(ctx context.Context, member, trainer *user.User, at time.Time) error {
	body := fmt.Sprintf(`Hi %s,

Your personal training session has been cancelled:

Trainer: %s
Time: %s

Cancelled sessions still count towards this period's usage.

- GymCore Team`, member.Name, trainer.Name, at.Format(timeLayout))

	return s.Send(ctx, KindSessionCancelled, member.Email, member.Name, "Session cancelled - "+trainer.Name, body)
}
