package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/forumfront/internal/apperror"
	"github.com/sakif/forumfront/internal/model"
	"github.com/sakif/forumfront/internal/service"
)

type removedTopics []int64

func (r *removedTopics) RemoveTopic(id int64) { *r = append(*r, id) }

func TestModeration_Authorization(t *testing.T) {
	api := newFakeBackend()
	mod := service.NewModerationService(api, testLogger())
	ctx := context.Background()

	_, err := mod.ListReports(ctx, newSession(nil), "")
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))

	_, err = mod.ListReports(ctx, newSession(ptr(user(1, "o", model.RoleOrganizer))), "")
	assert.True(t, errors.Is(err, apperror.ErrForbidden))

	err = mod.DeleteTopic(ctx, newSession(ptr(user(1, "u"))), 5)
	assert.True(t, errors.Is(err, apperror.ErrForbidden))
	assert.Empty(t, api.deleted)

	_, err = mod.ListReports(ctx, newSession(ptr(user(1, "m", model.RoleModerator))), "")
	assert.NoError(t, err)
}

func TestModeration_ListReportsFilters(t *testing.T) {
	api := newFakeBackend()
	api.reports = []model.Report{
		{ID: 1, Status: model.ReportPending},
		{ID: 2, Status: model.ReportApproved},
		{ID: 3, Status: model.ReportPending},
	}
	mod := service.NewModerationService(api, testLogger())
	sess := newSession(ptr(user(1, "a", model.RoleAdmin)))

	got, err := mod.ListReports(context.Background(), sess, model.ReportPending)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = mod.ListReports(context.Background(), sess, "archived")
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestModeration_ApproveAndReject(t *testing.T) {
	api := newFakeBackend()
	mod := service.NewModerationService(api, testLogger())
	sess := newSession(ptr(user(1, "m", model.RoleModerator)))

	r, err := mod.ApproveReport(context.Background(), sess, 12)
	require.NoError(t, err)
	assert.Equal(t, int64(12), r.ID)
	assert.Equal(t, model.ReportApproved, r.Status)

	r, err = mod.RejectReport(context.Background(), sess, 13)
	require.NoError(t, err)
	assert.Equal(t, model.ReportRejected, r.Status)

	assert.Equal(t, map[int64]model.ReportStatus{12: model.ReportApproved, 13: model.ReportRejected}, api.statusSet)
}

func TestModeration_DeleteTopicUpdatesLocalLists(t *testing.T) {
	api := newFakeBackend()
	mod := service.NewModerationService(api, testLogger())
	sess := newSession(ptr(user(1, "a", model.RoleAdmin)))

	var a, b removedTopics
	require.NoError(t, mod.DeleteTopic(context.Background(), sess, 5, &a, &b))
	assert.Equal(t, []int64{5}, api.deleted)
	assert.Equal(t, removedTopics{5}, a)
	assert.Equal(t, removedTopics{5}, b)

	api.adminErr = apperror.Upstream(500, "boom")
	var c removedTopics
	err := mod.DeleteTopic(context.Background(), sess, 6, &c)
	require.Error(t, err)
	assert.Empty(t, c, "local lists are untouched when the backend fails")
}
