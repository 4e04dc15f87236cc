package models

import (
	"testing"
	"time"
)

func TestMediaStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to MediaStatus
		allowed  bool
	}{
		{MediaStatusProcessing, MediaStatusNeedsReview, true},
		{MediaStatusProcessing, MediaStatusApproved, true},
		{MediaStatusProcessing, MediaStatusRejected, true},
		{MediaStatusNeedsReview, MediaStatusApproved, true},
		{MediaStatusNeedsReview, MediaStatusRejected, true},
		{MediaStatusNeedsReview, MediaStatusProcessing, false},
		{MediaStatusApproved, MediaStatusRejected, false},
		{MediaStatusApproved, MediaStatusNeedsReview, false},
		{MediaStatusRejected, MediaStatusApproved, false},
		{MediaStatusRejected, MediaStatusProcessing, false},
	}

	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.allowed {
			t.Errorf("%s → %s: ожидали %v, получили %v", c.from, c.to, c.allowed, got)
		}
	}
}

func TestMediaStatusTerminal(t *testing.T) {
	if MediaStatusProcessing.Terminal() || MediaStatusNeedsReview.Terminal() {
		t.Fatalf("processing и needs_review не терминальны")
	}
	if !MediaStatusApproved.Terminal() || !MediaStatusRejected.Terminal() {
		t.Fatalf("approved и rejected терминальны")
	}
}

func TestMediaTypeExt(t *testing.T) {
	// Расширение определяется заявленным типом, не контейнером исходника.
	if MediaTypeImage.Ext() != "jpg" {
		t.Fatalf("image → jpg")
	}
	if MediaTypeVideo.Ext() != "mp4" {
		t.Fatalf("video → mp4")
	}
}

func TestMediaRecordModerationNilUntilScanned(t *testing.T) {
	rec := &MediaRecord{}
	if rec.Moderation() != nil {
		t.Fatalf("блок moderation должен быть nil до отчёта сканера")
	}

	provider := "acme-vision"
	rec.ModerationProvider = &provider
	mod := rec.Moderation()
	if mod == nil || *mod.Provider != provider {
		t.Fatalf("блок moderation должен появиться после отчёта сканера")
	}
}

func TestQuotaDayIsUTC(t *testing.T) {
	// 23:30 в UTC-5 — это уже следующий день по UTC: сутки квоты
	// считаются в UTC независимо от пояса клиента.
	loc := time.FixedZone("UTC-5", -5*3600)
	local := time.Date(2026, 3, 10, 23, 30, 0, 0, loc)

	if got := QuotaDay(local); got != "2026-03-11" {
		t.Fatalf("ожидали 2026-03-11, получили %s", got)
	}
}
