package wiki

import "testing"

func TestUserIsAnonymous(t *testing.T) {
	tests := []struct {
		name     string
		user     *User
		expected bool
	}{
		{
			name:     "nil user",
			user:     nil,
			expected: true,
		},
		{
			name:     "anonymous user (ID=0)",
			user:     &User{ID: 0},
			expected: true,
		},
		{
			name:     "authenticated user (ID=1)",
			user:     &User{ID: 1},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.IsAnonymous(); got != tt.expected {
				t.Errorf("User.IsAnonymous() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserIsReviewer(t *testing.T) {
	tests := []struct {
		name     string
		user     *User
		expected bool
	}{
		{"admin", &User{ID: 1, Role: RoleAdmin}, true},
		{"moderator", &User{ID: 2, Role: RoleModerator}, true},
		{"regular user", &User{ID: 3, Role: RoleUser}, false},
		{"empty role", &User{ID: 4}, false},
		{"nil user", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.IsReviewer(); got != tt.expected {
				t.Errorf("User.IsReviewer() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestValidRole(t *testing.T) {
	valid := []string{RoleAdmin, RoleModerator, RoleUser}
	for _, role := range valid {
		if !ValidRole(role) {
			t.Errorf("ValidRole(%q) = false, want true", role)
		}
	}

	invalid := []string{"", "superuser", "Admin", "USER"}
	for _, role := range invalid {
		if ValidRole(role) {
			t.Errorf("ValidRole(%q) = true, want false", role)
		}
	}
}
