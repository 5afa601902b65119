package services

import (
	"context"
	"strings"
	"testing"

	"github.com/Farmanaslam/Infofix-New-App/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func resolvedTicket(device, issue string) models.Ticket {
	return models.Ticket{
		DeviceType:       device,
		IssueDescription: issue,
		Status:           models.StatusResolved,
	}
}

func TestClusterResolvedTickets(t *testing.T) {
	tickets := []models.Ticket{
		resolvedTicket("Laptop", "Screen flickers at random"),
		resolvedTicket("Laptop", "Cracked screen after drop"),
		resolvedTicket("Laptop", "screen has dead pixels"),
		resolvedTicket("Laptop", "Keyboard keys sticking"),
		resolvedTicket("Laptop", "keyboard backlight broken"),
		resolvedTicket("Laptop", "Battery dies quickly"),
		resolvedTicket("Laptop", "Strange rattling noise"),
		resolvedTicket("Laptop", "Makes odd noises too"),
	}

	patterns := ClusterResolvedTickets(tickets)

	// battery 只有 1 例（低于阈值）、无关键词的 general 桶有 2 例，都要被丢弃
	if len(patterns) != 2 {
		t.Fatalf("expected 2 patterns, got %d", len(patterns))
	}

	if patterns[0].Title != "Laptop - Screen Issues" || patterns[0].Count != 3 {
		t.Errorf("expected screen pattern first with 3 cases, got %+v", patterns[0])
	}
	if patterns[1].Title != "Laptop - Keyboard Issues" || patterns[1].Count != 2 {
		t.Errorf("expected keyboard pattern with 2 cases, got %+v", patterns[1])
	}
	if len(patterns[0].RelatedTickets) != 3 {
		t.Errorf("expected related tickets attached, got %d", len(patterns[0].RelatedTickets))
	}
	for _, p := range patterns {
		if !strings.HasPrefix(p.ID, "pattern-") {
			t.Errorf("expected stable pattern ID, got %q", p.ID)
		}
	}
}

func TestClusterResolvedTickets_KeywordPriority(t *testing.T) {
	// "screen" 在关键词表中先于 "display"，同时命中时归入 screen 桶
	tickets := []models.Ticket{
		resolvedTicket("Laptop", "display shows screen artifacts"),
		resolvedTicket("Laptop", "screen and display both flicker"),
	}
	patterns := ClusterResolvedTickets(tickets)
	if len(patterns) != 1 || patterns[0].Title != "Laptop - Screen Issues" {
		t.Fatalf("expected single screen pattern, got %+v", patterns)
	}
}

func TestClusterResolvedTickets_Empty(t *testing.T) {
	if got := ClusterResolvedTickets(nil); len(got) != 0 {
		t.Errorf("expected no patterns, got %d", len(got))
	}
}

func TestInsightService_MinePatterns(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Ticket{}, &models.TicketHistoryEvent{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	seed := []models.Ticket{
		{TicketCode: "IF-1", DeviceType: "Laptop", IssueDescription: "Battery drains fast", Status: models.StatusResolved},
		{TicketCode: "IF-2", DeviceType: "Laptop", IssueDescription: "battery swollen", Status: models.StatusResolved},
		// 未解决的工单不参与挖掘
		{TicketCode: "REQ-3", DeviceType: "Laptop", IssueDescription: "battery dead", Status: models.StatusPendingApproval},
	}
	for i := range seed {
		if err := db.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed ticket: %v", err)
		}
	}

	svc := NewInsightService(db, logrus.New(), nil)
	patterns, err := svc.MinePatterns(context.Background())
	if err != nil {
		t.Fatalf("MinePatterns: %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("expected 1 pattern, got %d", len(patterns))
	}
	if patterns[0].Title != "Laptop - Battery Issues" || patterns[0].Count != 2 {
		t.Errorf("unexpected pattern: %+v", patterns[0])
	}
}

func TestInsightService_FormalizePattern(t *testing.T) {
	ai := &fakeGemini{reply: "1. Diagnosis Steps\n2. Repair Solution\n3. Testing Verification"}
	assistant := NewAssistantService(nil, logrus.New(), ai)
	svc := NewInsightService(nil, logrus.New(), assistant)

	related := make([]models.Ticket, 0, 7)
	for i := 0; i < 7; i++ {
		related = append(related, resolvedTicket("Laptop", "Screen cracked"))
	}
	pattern := &Pattern{
		ID:             "pattern-0",
		Title:          "Laptop - Screen Issues",
		Count:          7,
		RelatedTickets: related,
	}

	draft := svc.FormalizePattern(context.Background(), pattern)
	if draft.Title != "SOP: Laptop - Screen Issues" {
		t.Errorf("unexpected draft title %q", draft.Title)
	}
	if draft.Category != "AI-Learned" {
		t.Errorf("unexpected draft category %q", draft.Category)
	}
	if draft.Content != ai.reply {
		t.Errorf("expected AI reply passed through, got %q", draft.Content)
	}

	// 样例最多取 5 条
	if got := strings.Count(ai.lastPrompt, "(Status: Resolved)"); got != 5 {
		t.Errorf("expected 5 ticket examples in prompt, got %d", got)
	}
	if !strings.Contains(ai.lastPrompt, "Drafting a Standard Operating Procedure (SOP).") {
		t.Error("expected SOP context in prompt")
	}
	if !strings.Contains(ai.lastPrompt, "1. Diagnosis Steps") {
		t.Error("expected SOP format section in prompt")
	}
}
