package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/forumfront/internal/apperror"
	"github.com/sakif/forumfront/internal/model"
	"github.com/sakif/forumfront/internal/session"
)

// AdminAPI is the slice of the backend used by forum moderation.
type AdminAPI interface {
	ListReports(ctx context.Context, status model.ReportStatus) ([]model.Report, error)
	SetReportStatus(ctx context.Context, id int64, status model.ReportStatus) (*model.Report, error)
	AdminListTopics(ctx context.Context) ([]model.Topic, error)
	AdminGetTopic(ctx context.Context, id int64) (*model.Topic, error)
	AdminDeleteTopic(ctx context.Context, id int64) error
	HighlightTopic(ctx context.Context, id int64, on bool) error
}

// ModerationService serves the forum moderation screens. Every call needs
// a session whose user may moderate the forum.
type ModerationService struct {
	api    AdminAPI
	logger *slog.Logger
}

func NewModerationService(api AdminAPI, logger *slog.Logger) *ModerationService {
	return &ModerationService{api: api, logger: logger}
}

func (s *ModerationService) authorize(sess *session.Session) error {
	u := sess.User()
	if u == nil {
		return apperror.Unauthorized("sign in to moderate the forum")
	}
	if !DerivePermissions(u).CanModerateForum {
		return apperror.Forbidden("forum moderation requires the admin or moderator role")
	}
	return nil
}

// ListReports returns reports, filtered by status when status is set.
func (s *ModerationService) ListReports(ctx context.Context, sess *session.Session, status model.ReportStatus) ([]model.Report, error) {
	if err := s.authorize(sess); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, apperror.ValidationFailed("status", fmt.Sprintf("unknown report status %q", status))
	}
	reports, err := s.api.ListReports(sess.Context(ctx), status)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	return reports, nil
}

// ApproveReport upholds a report. The admin UI labels this "Remove
// Content"; the backend only records status=approved.
func (s *ModerationService) ApproveReport(ctx context.Context, sess *session.Session, id int64) (*model.Report, error) {
	return s.setStatus(ctx, sess, id, model.ReportApproved)
}

// RejectReport dismisses a report.
func (s *ModerationService) RejectReport(ctx context.Context, sess *session.Session, id int64) (*model.Report, error) {
	return s.setStatus(ctx, sess, id, model.ReportRejected)
}

func (s *ModerationService) setStatus(ctx context.Context, sess *session.Session, id int64, status model.ReportStatus) (*model.Report, error) {
	if err := s.authorize(sess); err != nil {
		return nil, err
	}
	r, err := s.api.SetReportStatus(sess.Context(ctx), id, status)
	if err != nil {
		return nil, fmt.Errorf("setting report %d to %s: %w", id, status, err)
	}
	// Some backend versions answer with an empty body.
	if r.ID == 0 {
		r.ID = id
	}
	if r.Status == "" {
		r.Status = status
	}
	s.logger.Info("report moderated",
		slog.Int64("reportID", id),
		slog.String("status", string(status)),
		slog.Int64("moderatorID", sess.User().ID),
	)
	return r, nil
}

func (s *ModerationService) ListTopics(ctx context.Context, sess *session.Session) ([]model.Topic, error) {
	if err := s.authorize(sess); err != nil {
		return nil, err
	}
	topics, err := s.api.AdminListTopics(sess.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("listing admin topics: %w", err)
	}
	return topics, nil
}

func (s *ModerationService) GetTopic(ctx context.Context, sess *session.Session, id int64) (*model.Topic, error) {
	if err := s.authorize(sess); err != nil {
		return nil, err
	}
	t, err := s.api.AdminGetTopic(sess.Context(ctx), id)
	if err != nil {
		return nil, fmt.Errorf("loading admin topic %d: %w", id, err)
	}
	return t, nil
}

// DeleteTopic deletes the topic on the backend and then from every local
// list passed in.
func (s *ModerationService) DeleteTopic(ctx context.Context, sess *session.Session, id int64, lists ...TopicRemover) error {
	if err := s.authorize(sess); err != nil {
		return err
	}
	if err := s.api.AdminDeleteTopic(sess.Context(ctx), id); err != nil {
		return fmt.Errorf("deleting topic %d: %w", id, err)
	}
	for _, l := range lists {
		l.RemoveTopic(id)
	}
	s.logger.Info("topic deleted", slog.Int64("topicID", id), slog.Int64("moderatorID", sess.User().ID))
	return nil
}

// TopicRemover is a local topic list that can drop an entry.
type TopicRemover interface {
	RemoveTopic(id int64)
}

func (s *ModerationService) HighlightTopic(ctx context.Context, sess *session.Session, id int64, on bool) error {
	if err := s.authorize(sess); err != nil {
		return err
	}
	if err := s.api.HighlightTopic(sess.Context(ctx), id, on); err != nil {
		return fmt.Errorf("highlighting topic %d: %w", id, err)
	}
	return nil
}
