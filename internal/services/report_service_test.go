package services_test

import (
	"strings"
	"testing"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileReport(t *testing.T) {
	f := newFixture(t)
	imageID := f.newImage()
	reporter := uuid.New()

	report, err := f.reports.FileReport(f.ctx, imageID, reporter, models.CategorySpam, "  buy followers  ")
	require.NoError(t, err)
	assert.Equal(t, models.ReportPending, report.Status)
	assert.Equal(t, "buy followers", report.Reason)
	assert.True(t, report.ReviewedBy.IsSystem())
	assert.Nil(t, report.ReviewedAt)

	entries := f.auditFor(store.AuditFilter{ReportID: report.ID})
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionReportFiled, entries[0].Action)
	assert.Equal(t, models.Human(reporter), entries[0].Actor)
	assert.Equal(t, "spam", details(t, entries[0])["category"])

	// Filing a report does not touch the image.
	assert.Equal(t, models.VisibilityActive, f.visibility(imageID))
}

func TestFileReport_Validation(t *testing.T) {
	f := newFixture(t)
	imageID := f.newImage()

	tests := []struct {
		name     string
		imageID  uuid.UUID
		category models.ReportCategory
		reason   string
		want     error
	}{
		{"unknown category", imageID, models.ReportCategory(42), "bad", services.ErrInvalidCategory},
		{"blank reason", imageID, models.CategoryOther, "   ", services.ErrReasonRequired},
		{"reason too long", imageID, models.CategoryOther, strings.Repeat("x", 1001), services.ErrReasonTooLong},
		{"missing image", uuid.New(), models.CategoryOther, "bad", services.ErrImageNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.reports.FileReport(f.ctx, tt.imageID, uuid.New(), tt.category, tt.reason)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDismissReport(t *testing.T) {
	f := newFixture(t)
	imageID := f.newImage()
	report := f.fileReport(imageID)
	notes := "duplicate"

	dismissed, err := f.reports.DismissReport(f.ctx, report.ID, f.moderator, &notes)
	require.NoError(t, err)
	assert.Equal(t, models.ReportDismissed, dismissed.Status)
	assert.Equal(t, models.Human(f.moderator), dismissed.ReviewedBy)
	require.NotNil(t, dismissed.Notes)
	assert.Equal(t, "duplicate", *dismissed.Notes)
	assert.Equal(t, models.VisibilityActive, f.visibility(imageID))

	_, err = f.reports.DismissReport(f.ctx, report.ID, f.moderator, nil)
	assert.ErrorIs(t, err, services.ErrReportNotPending)
	_, err = f.reports.ActOnReport(f.ctx, report.ID, f.moderator, nil)
	assert.ErrorIs(t, err, services.ErrInvalidState)
}

func TestActOnReport(t *testing.T) {
	f := newFixture(t)
	imageID := f.newImage()
	report := f.fileReport(imageID)

	acted, err := f.reports.ActOnReport(f.ctx, report.ID, f.moderator, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ReportReviewed, acted.Status)
	assert.Equal(t, models.VisibilityRemoved, f.visibility(imageID))

	changed := f.auditFor(store.AuditFilter{ReportID: report.ID, Action: models.ActionImageStatusChanged})
	require.Len(t, changed, 1)
	d := details(t, changed[0])
	assert.Equal(t, "active", d["previous_visibility"])
	assert.Equal(t, "removed", d["visibility"])
	assert.Len(t, f.auditFor(store.AuditFilter{ReportID: report.ID, Action: models.ActionReportActed}), 1)
}

func TestActOnReport_ConflictsWithOpenReview(t *testing.T) {
	f := newFixture(t)
	imageID := f.newImage()
	f.startReview(imageID)
	report := f.fileReport(imageID)

	_, err := f.reports.ActOnReport(f.ctx, report.ID, f.moderator, nil)
	assert.ErrorIs(t, err, services.ErrConflict)

	got, err := f.reports.GetReport(f.ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportPending, got.Status)
	assert.Equal(t, models.VisibilityPendingReview, f.visibility(imageID))
}

func TestUpdateNotes_AfterTriage(t *testing.T) {
	f := newFixture(t)
	report := f.fileReport(f.newImage())
	_, err := f.reports.DismissReport(f.ctx, report.ID, f.moderator, nil)
	require.NoError(t, err)

	updated, err := f.reports.UpdateNotes(f.ctx, report.ID, f.moderator, "checked again")
	require.NoError(t, err)
	assert.Equal(t, models.ReportDismissed, updated.Status)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, "checked again", *updated.Notes)

	_, err = f.reports.UpdateNotes(f.ctx, uuid.New(), f.moderator, "x")
	assert.ErrorIs(t, err, services.ErrReportNotFound)
	_, err = f.reports.UpdateNotes(f.ctx, report.ID, f.moderator, strings.Repeat("n", 2001))
	assert.ErrorIs(t, err, services.ErrNotesTooLong)
}

func TestListReports(t *testing.T) {
	f := newFixture(t)
	imageID := f.newImage()
	first := f.fileReport(imageID)
	f.clock.Advance(day)
	second := f.fileReport(imageID)
	f.fileReport(f.newImage())
	_, err := f.reports.DismissReport(f.ctx, first.ID, f.moderator, nil)
	require.NoError(t, err)

	pending, total, err := f.reports.ListReports(f.ctx, store.ReportFilter{Status: models.ReportPending, ImageID: imageID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	all, total, err := f.reports.ListReports(f.ctx, store.ReportFilter{Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 2)
}
