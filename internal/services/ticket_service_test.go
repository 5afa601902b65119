package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Farmanaslam/Infofix-New-App/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTicketServiceTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Ticket{},
		&models.TicketHistoryEvent{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func createTestCustomer(t *testing.T, db *gorm.DB) *models.User {
	customer := &models.User{
		Name:    "Ravi Kumar",
		Email:   "ravi@example.com",
		Phone:   "9876543210",
		Address: "12 MG Road",
		Role:    "customer",
	}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return customer
}

func TestTicketService_CreateTicket(t *testing.T) {
	db := newTicketServiceTestDB(t)
	svc := NewTicketService(db, logrus.New())
	customer := createTestCustomer(t, db)

	tests := []struct {
		name    string
		req     *TicketCreateRequest
		wantErr bool
	}{
		{
			name: "valid ticket",
			req: &TicketCreateRequest{
				CustomerID:       customer.ID,
				DeviceType:       "Laptop",
				Brand:            "Dell",
				IssueDescription: "Screen flickering on boot",
				Store:            "Main Branch",
			},
			wantErr: false,
		},
		{
			name: "unknown customer",
			req: &TicketCreateRequest{
				CustomerID:       9999,
				DeviceType:       "Laptop",
				IssueDescription: "Screen flickering on boot",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket, err := svc.CreateTicket(context.Background(), tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("CreateTicket() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if !strings.HasPrefix(ticket.TicketCode, "REQ-") {
				t.Errorf("expected REQ- prefixed code, got %q", ticket.TicketCode)
			}
			if ticket.Status != models.StatusPendingApproval {
				t.Errorf("expected status %q, got %q", models.StatusPendingApproval, ticket.Status)
			}
			if ticket.Name != customer.Name || ticket.Phone != customer.Phone {
				t.Error("expected customer contact details copied onto ticket")
			}
			if ticket.Priority != "Medium" {
				t.Errorf("expected default priority Medium, got %q", ticket.Priority)
			}
			if len(ticket.History) != 1 {
				t.Fatalf("expected 1 history event, got %d", len(ticket.History))
			}
			if ticket.History[0].Kind != models.EventKindCreated {
				t.Errorf("expected created event, got %q", ticket.History[0].Kind)
			}
			if ticket.History[0].ActorRole != "CUSTOMER" {
				t.Errorf("expected CUSTOMER actor role, got %q", ticket.History[0].ActorRole)
			}
		})
	}
}

func TestTicketService_ApproveTicket(t *testing.T) {
	db := newTicketServiceTestDB(t)
	svc := NewTicketService(db, logrus.New())
	customer := createTestCustomer(t, db)

	ticket, err := svc.CreateTicket(context.Background(), &TicketCreateRequest{
		CustomerID:       customer.ID,
		DeviceType:       "Laptop",
		IssueDescription: "Battery drains fast",
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	suffix := strings.TrimPrefix(ticket.TicketCode, "REQ")

	approved, err := svc.ApproveTicket(context.Background(), ticket.ID, "Priya")
	if err != nil {
		t.Fatalf("ApproveTicket: %v", err)
	}
	if approved.TicketCode != "IF"+suffix {
		t.Errorf("expected code %q, got %q", "IF"+suffix, approved.TicketCode)
	}
	if approved.Status != models.StatusNew {
		t.Errorf("expected status %q, got %q", models.StatusNew, approved.Status)
	}
	if approved.ApprovedBy != "Priya" || approved.ApprovedAt == nil {
		t.Error("expected approval metadata recorded")
	}
	if len(approved.History) != 2 {
		t.Fatalf("expected 2 history events, got %d", len(approved.History))
	}

	// 二次审批必须被拒绝
	if _, err := svc.ApproveTicket(context.Background(), ticket.ID, "Priya"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestTicketService_RejectTicket(t *testing.T) {
	db := newTicketServiceTestDB(t)
	svc := NewTicketService(db, logrus.New())
	customer := createTestCustomer(t, db)

	ticket, _ := svc.CreateTicket(context.Background(), &TicketCreateRequest{
		CustomerID:       customer.ID,
		DeviceType:       "Laptop",
		IssueDescription: "Water damage",
	})

	rejected, err := svc.RejectTicket(context.Background(), ticket.ID, "Priya")
	if err != nil {
		t.Fatalf("RejectTicket: %v", err)
	}
	if rejected.Status != models.StatusRejected {
		t.Errorf("expected status %q, got %q", models.StatusRejected, rejected.Status)
	}
	if rejected.RejectedBy != "Priya" || rejected.RejectedAt == nil {
		t.Error("expected rejection metadata recorded")
	}
	// 编号保持 REQ- 前缀不变
	if !strings.HasPrefix(rejected.TicketCode, "REQ-") {
		t.Errorf("expected code untouched on reject, got %q", rejected.TicketCode)
	}

	// 已拒绝的工单不能再审批
	if _, err := svc.ApproveTicket(context.Background(), ticket.ID, "Priya"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestTicketService_UpdateStatus(t *testing.T) {
	db := newTicketServiceTestDB(t)
	svc := NewTicketService(db, logrus.New())
	customer := createTestCustomer(t, db)

	newTicket := func(t *testing.T) *models.Ticket {
		ticket, err := svc.CreateTicket(context.Background(), &TicketCreateRequest{
			CustomerID:       customer.ID,
			DeviceType:       "Laptop",
			IssueDescription: "Keyboard not responding",
		})
		if err != nil {
			t.Fatalf("CreateTicket: %v", err)
		}
		// 编号含毫秒时间戳，避免同一毫秒内的唯一键冲突
		time.Sleep(2 * time.Millisecond)
		if _, err := svc.ApproveTicket(context.Background(), ticket.ID, "Priya"); err != nil {
			t.Fatalf("ApproveTicket: %v", err)
		}
		return ticket
	}

	t.Run("repair flow", func(t *testing.T) {
		ticket := newTicket(t)

		updated, err := svc.UpdateStatus(context.Background(), ticket.ID, &TicketStatusRequest{
			Status: models.StatusInProgress,
			Actor:  "Arun",
		})
		if err != nil {
			t.Fatalf("UpdateStatus: %v", err)
		}
		if updated.Status != models.StatusInProgress {
			t.Errorf("expected In Progress, got %q", updated.Status)
		}

		held, err := svc.UpdateStatus(context.Background(), ticket.ID, &TicketStatusRequest{
			Status:     models.StatusOnHold,
			Actor:      "Arun",
			HoldReason: "Waiting for parts",
		})
		if err != nil {
			t.Fatalf("UpdateStatus: %v", err)
		}
		if held.HoldReason != "Waiting for parts" {
			t.Errorf("expected hold reason persisted, got %q", held.HoldReason)
		}

		resolved, err := svc.UpdateStatus(context.Background(), ticket.ID, &TicketStatusRequest{
			Status: models.StatusResolved,
			Actor:  "Arun",
		})
		if err != nil {
			t.Fatalf("UpdateStatus: %v", err)
		}
		if resolved.Status != models.StatusResolved {
			t.Errorf("expected Resolved, got %q", resolved.Status)
		}
		// created + approved + 3 次流转
		if len(resolved.History) != 5 {
			t.Errorf("expected 5 history events, got %d", len(resolved.History))
		}
	})

	t.Run("terminal status is frozen", func(t *testing.T) {
		ticket := newTicket(t)
		if _, err := svc.UpdateStatus(context.Background(), ticket.ID, &TicketStatusRequest{
			Status: models.StatusResolved,
			Actor:  "Arun",
		}); err != nil {
			t.Fatalf("UpdateStatus: %v", err)
		}
		_, err := svc.UpdateStatus(context.Background(), ticket.ID, &TicketStatusRequest{
			Status: models.StatusInProgress,
			Actor:  "Arun",
		})
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		ticket := newTicket(t)
		if _, err := svc.UpdateStatus(context.Background(), ticket.ID, &TicketStatusRequest{
			Status: "Shipped",
			Actor:  "Arun",
		}); err == nil {
			t.Error("expected error for unknown status")
		}
	})
}

func TestDeriveTimeline(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("empty history gets synthetic event", func(t *testing.T) {
		ticket := &models.Ticket{ID: 7, CreatedAt: created}
		events := DeriveTimeline(ticket)
		if len(events) != 1 {
			t.Fatalf("expected 1 synthetic event, got %d", len(events))
		}
		e := events[0]
		if e.ActorName != "System" || e.Action != "Ticket Created" || e.Details != "Service request received." {
			t.Errorf("unexpected synthetic event: %+v", e)
		}
		if e.Timestamp != created.UnixMilli() {
			t.Errorf("expected timestamp %d, got %d", created.UnixMilli(), e.Timestamp)
		}
	})

	t.Run("newest first with ID tie-break", func(t *testing.T) {
		ticket := &models.Ticket{
			ID: 7,
			History: []models.TicketHistoryEvent{
				{ID: 1, Timestamp: 1000, Action: "Ticket Created"},
				{ID: 2, Timestamp: 2000, Action: "Approved"},
				{ID: 3, Timestamp: 2000, Action: "Repair Started"},
			},
		}
		events := DeriveTimeline(ticket)
		got := []string{events[0].Action, events[1].Action, events[2].Action}
		want := []string{"Repair Started", "Approved", "Ticket Created"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("order mismatch: got %v, want %v", got, want)
			}
		}

		// 幂等：重复派生结果一致，且不改动原始历史
		again := DeriveTimeline(ticket)
		for i := range events {
			if events[i].ID != again[i].ID {
				t.Fatal("expected identical order on repeated derivation")
			}
		}
		if ticket.History[0].ID != 1 {
			t.Error("expected source history untouched")
		}
	})
}

func TestTicketService_CustomerStats(t *testing.T) {
	db := newTicketServiceTestDB(t)
	svc := NewTicketService(db, logrus.New())
	customer := createTestCustomer(t, db)

	for i := 0; i < 3; i++ {
		ticket, err := svc.CreateTicket(context.Background(), &TicketCreateRequest{
			CustomerID:       customer.ID,
			DeviceType:       "Laptop",
			IssueDescription: "Won't power on",
		})
		if err != nil {
			t.Fatalf("CreateTicket: %v", err)
		}
		// 编号含毫秒时间戳，避免同一毫秒内的唯一键冲突
		time.Sleep(2 * time.Millisecond)
		if i == 0 {
			if _, err := svc.ApproveTicket(context.Background(), ticket.ID, "Priya"); err != nil {
				t.Fatalf("ApproveTicket: %v", err)
			}
			if _, err := svc.UpdateStatus(context.Background(), ticket.ID, &TicketStatusRequest{
				Status: models.StatusResolved,
				Actor:  "Arun",
			}); err != nil {
				t.Fatalf("UpdateStatus: %v", err)
			}
		}
		if i == 1 {
			if _, err := svc.RejectTicket(context.Background(), ticket.ID, "Priya"); err != nil {
				t.Fatalf("RejectTicket: %v", err)
			}
		}
	}

	stats, err := svc.CustomerStats(context.Background(), customer.ID)
	if err != nil {
		t.Fatalf("CustomerStats: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("expected 3 total, got %d", stats.Total)
	}
	if stats.Active != 1 {
		t.Errorf("expected 1 active, got %d", stats.Active)
	}
	if stats.Resolved != 1 {
		t.Errorf("expected 1 resolved, got %d", stats.Resolved)
	}
}
