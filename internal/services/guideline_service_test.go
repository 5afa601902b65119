package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Farmanaslam/Infofix-New-App/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newGuidelineServiceTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Guideline{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

// recordingPublisher 记录服务发布的变更事件
type recordingPublisher struct {
	events []string
}

func (p *recordingPublisher) Publish(eventType string, data interface{}) {
	p.events = append(p.events, eventType)
}

func TestGuidelineService_PublishesEvents(t *testing.T) {
	db := newGuidelineServiceTestDB(t)
	svc := NewGuidelineService(db, logrus.New())
	publisher := &recordingPublisher{}
	svc.SetEventPublisher(publisher)

	created, err := svc.CreateGuideline(context.Background(), &GuidelineCreateRequest{
		Title:    "Water Damage Intake",
		Category: "Intake",
		Content:  "Do not power on. Dry for 48 hours.",
	})
	if err != nil {
		t.Fatalf("CreateGuideline: %v", err)
	}

	title := "Water Damage Intake v2"
	if _, err := svc.UpdateGuideline(context.Background(), created.ID, &GuidelineUpdateRequest{Title: &title}); err != nil {
		t.Fatalf("UpdateGuideline: %v", err)
	}

	if err := svc.DeleteGuideline(context.Background(), created.ID); err != nil {
		t.Fatalf("DeleteGuideline: %v", err)
	}

	want := []string{"guideline.updated", "guideline.updated", "guideline.deleted"}
	if len(publisher.events) != len(want) {
		t.Fatalf("published events = %v, want %v", publisher.events, want)
	}
	for i, event := range want {
		if publisher.events[i] != event {
			t.Errorf("event[%d] = %q, want %q", i, publisher.events[i], event)
		}
	}
}

func TestGuidelineService_CRUD(t *testing.T) {
	db := newGuidelineServiceTestDB(t)
	svc := NewGuidelineService(db, logrus.New())

	created, err := svc.CreateGuideline(context.Background(), &GuidelineCreateRequest{
		Title:    "Water Damage Intake",
		Category: "Intake",
		Content:  "Do not power on. Dry for 48 hours.",
	})
	if err != nil {
		t.Fatalf("CreateGuideline: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected persisted guideline")
	}
	if created.Brand != "" {
		t.Errorf("expected general guideline (empty brand), got %q", created.Brand)
	}

	newContent := "Do not power on. Dry for 72 hours."
	updated, err := svc.UpdateGuideline(context.Background(), created.ID, &GuidelineUpdateRequest{
		Content: &newContent,
	})
	if err != nil {
		t.Fatalf("UpdateGuideline: %v", err)
	}
	if updated.Content != newContent {
		t.Errorf("expected updated content, got %q", updated.Content)
	}
	if updated.Title != "Water Damage Intake" {
		t.Errorf("expected untouched title, got %q", updated.Title)
	}

	if _, err := svc.UpdateGuideline(context.Background(), 9999, &GuidelineUpdateRequest{Content: &newContent}); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}

	if err := svc.DeleteGuideline(context.Background(), created.ID); err != nil {
		t.Fatalf("DeleteGuideline: %v", err)
	}
	if err := svc.DeleteGuideline(context.Background(), created.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound on double delete, got %v", err)
	}
}

func TestGuidelineService_ListGuidelines(t *testing.T) {
	db := newGuidelineServiceTestDB(t)
	svc := NewGuidelineService(db, logrus.New())

	seed := []GuidelineCreateRequest{
		{Title: "Water Damage Intake", Category: "Intake", Content: "Do not power on."},
		{Brand: "ivoomi", Title: "Standard Screen Replacement", Category: "Repair", Content: "Heat gun at 80C."},
		{Brand: "elista", Title: "LED TV Power Supply Check", Category: "Troubleshoot", Content: "Check Fuse F1."},
	}
	for i := range seed {
		if _, err := svc.CreateGuideline(context.Background(), &seed[i]); err != nil {
			t.Fatalf("CreateGuideline: %v", err)
		}
	}

	tests := []struct {
		name     string
		brand    string
		category string
		search   string
		want     int
	}{
		{name: "all", want: 3},
		{name: "brand filter", brand: "ivoomi", want: 1},
		{name: "general pseudo brand", brand: "general", want: 1},
		{name: "category filter", category: "Repair", want: 1},
		{name: "search matches content", search: "Fuse", want: 1},
		{name: "search matches title", search: "Water", want: 1},
		{name: "no match", search: "zzz", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ListGuidelines(context.Background(), tt.brand, tt.category, tt.search)
			if err != nil {
				t.Fatalf("ListGuidelines: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("expected %d guidelines, got %d", tt.want, len(got))
			}
		})
	}
}
