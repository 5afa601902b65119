package services

import (
	"context"
	"testing"

	"github.com/Farmanaslam/Infofix-New-App/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newUserServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return db
}

func TestUserService_CreateUser(t *testing.T) {
	db := newUserServiceTestDB(t)
	service := NewUserService(db, nil)

	user, err := service.CreateUser(context.Background(), &UserCreateRequest{
		Name:  "Priya Nair",
		Email: "priya@example.com",
		Phone: "9876543210",
	})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if user.ID == 0 {
		t.Error("expected user ID to be assigned")
	}
	if user.Role != "customer" {
		t.Errorf("Role = %q, want default %q", user.Role, "customer")
	}

	staff, err := service.CreateUser(context.Background(), &UserCreateRequest{
		Name: "Arun Kumar",
		Role: "technician",
	})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if staff.Role != "technician" {
		t.Errorf("Role = %q, want %q", staff.Role, "technician")
	}
}

func TestUserService_GetUser(t *testing.T) {
	db := newUserServiceTestDB(t)
	service := NewUserService(db, nil)

	created, err := service.CreateUser(context.Background(), &UserCreateRequest{Name: "Priya Nair"})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	got, err := service.GetUser(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if got.Name != "Priya Nair" {
		t.Errorf("Name = %q", got.Name)
	}

	if _, err := service.GetUser(context.Background(), 9999); err == nil {
		t.Error("expected error for unknown user")
	}
}

func TestUserService_ListUsers(t *testing.T) {
	db := newUserServiceTestDB(t)
	service := NewUserService(db, nil)

	seed := []UserCreateRequest{
		{Name: "Priya Nair", Role: "customer"},
		{Name: "Arun Kumar", Role: "technician"},
		{Name: "Sharma", Role: "technician"},
	}
	for i := range seed {
		if _, err := service.CreateUser(context.Background(), &seed[i]); err != nil {
			t.Fatalf("CreateUser() error = %v", err)
		}
	}

	all, err := service.ListUsers(context.Background(), "")
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all users = %d, want 3", len(all))
	}

	technicians, err := service.ListUsers(context.Background(), "technician")
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(technicians) != 2 {
		t.Errorf("technicians = %d, want 2", len(technicians))
	}
}
