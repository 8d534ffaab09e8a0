package enums

import "testing"

func TestParseUserRole(t *testing.T) {
	role, err := ParseUserRole("admin")
	if err != nil {
		t.Fatalf("ParseUserRole returned error: %v", err)
	}
	if role != UserRoleAdmin {
		t.Fatalf("ParseUserRole(admin) = %q", role)
	}

	if _, err := ParseUserRole("superuser"); err == nil {
		t.Fatal("expected unknown role to fail")
	}
}

func TestUserRoleIsValid(t *testing.T) {
	if !UserRoleCustomer.IsValid() {
		t.Fatal("customer should be valid")
	}
	if UserRole("Customer").IsValid() {
		t.Fatal("roles are case sensitive")
	}
}
