package auth

import "testing"

func TestPasswordIsHashedBeforeSaving(t *testing.T) {
	repo := NewInMemoryUserRepository()
	service := NewService(repo)

	password := "Password@123"

	_, err := service.Register("Test User", "test@example.com", "", password)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	user := repo.users["test@example.com"]
	if user == nil {
		t.Fatalf("user not found")
	}

	if user.Password == password {
		t.Fatalf("password was stored in plain text")
	}
}

func TestRegisterDefaultsToCustomerRole(t *testing.T) {
	repo := NewInMemoryUserRepository()
	service := NewService(repo)

	user, err := service.Register("Test User", "customer@example.com", "", "secret123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if user.Role != RoleCustomer {
		t.Fatalf("expected role %s, got %s", RoleCustomer, user.Role)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	repo := NewInMemoryUserRepository()
	service := NewService(repo)

	_, err := service.Register("Test User", "test@example.com", "", "correct-password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := service.Login("test@example.com", "wrong-password"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestUserExists(t *testing.T) {
	repo := NewInMemoryUserRepository()
	service := NewService(repo)

	_, _ = service.Register("Test User", "known@example.com", "", "secret123")

	exists, err := service.UserExists("known@example.com")
	if err != nil || !exists {
		t.Fatalf("expected known user to exist, got exists=%v err=%v", exists, err)
	}

	exists, err = service.UserExists("unknown@example.com")
	if err != nil || exists {
		t.Fatalf("expected unknown user to not exist, got exists=%v err=%v", exists, err)
	}
}
