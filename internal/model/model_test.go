package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestNotificationVisibleTo(t *testing.T) {
	cs := User{ID: "u1", Department: strp("CS"), Year: strp("2")}
	me := User{ID: "u2", Department: strp("ME"), Year: strp("3")}
	bare := User{ID: "u3"}

	tests := []struct {
		name string
		n    Notification
		want map[string]bool
	}{
		{
			name: "broadcast",
			n:    Notification{},
			want: map[string]bool{"u1": true, "u2": true, "u3": true},
		},
		{
			name: "department",
			n:    Notification{TargetDepartment: strp("CS")},
			want: map[string]bool{"u1": true, "u2": false, "u3": false},
		},
		{
			name: "year",
			n:    Notification{TargetYear: strp("3")},
			want: map[string]bool{"u1": false, "u2": true, "u3": false},
		},
		{
			name: "explicit users win over department",
			n:    Notification{TargetUsers: []string{"u2"}, TargetDepartment: strp("CS")},
			want: map[string]bool{"u1": false, "u2": true, "u3": false},
		},
		{
			name: "department wins over year",
			n:    Notification{TargetDepartment: strp("ME"), TargetYear: strp("2")},
			want: map[string]bool{"u1": false, "u2": true, "u3": false},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, u := range []User{cs, me, bare} {
				assert.Equal(t, tt.want[u.ID], tt.n.VisibleTo(u), "user %s", u.ID)
			}
		})
	}
}

func TestCategoryFromLabel(t *testing.T) {
	cases := map[string]Category{
		"Hackathon Event":       CategoryEvent,
		"Library visit":         CategoryFacility,
		"Chemistry LAB session": CategoryFacility,
		"Facility booking":      CategoryFacility,
		"Store purchase":        CategoryStore,
		"Academic excellence":   CategoryAcademic,
		"Volunteering":          CategoryOther,
		"":                      CategoryOther,
	}
	for label, want := range cases {
		assert.Equal(t, want, CategoryFromLabel(label), label)
	}
	assert.True(t, CategoryFromLabel("anything").Valid())
	assert.False(t, Category("bonus").Valid())
}

func TestAvailabilityAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("never booked", func(t *testing.T) {
		a := AvailabilityAt(nil, now)
		assert.True(t, a.CanBook)
		assert.Zero(t, a.CooldownRemainingMS)
		assert.Nil(t, a.CooldownUntil)
	})

	t.Run("active cooldown", func(t *testing.T) {
		b := &FacilityBooking{CooldownUntil: now.Add(time.Minute)}
		a := AvailabilityAt(b, now)
		assert.False(t, a.CanBook)
		assert.Equal(t, int64(60000), a.CooldownRemainingMS)
		require.NotNil(t, a.CooldownUntil)
		assert.True(t, a.CooldownUntil.Equal(b.CooldownUntil))
	})

	t.Run("expired cooldown", func(t *testing.T) {
		b := &FacilityBooking{CooldownUntil: now.Add(-time.Second)}
		a := AvailabilityAt(b, now)
		assert.True(t, a.CanBook)
		assert.Zero(t, a.CooldownRemaining)
	})

	t.Run("cooldown ends exactly now", func(t *testing.T) {
		a := AvailabilityAt(&FacilityBooking{CooldownUntil: now}, now)
		assert.True(t, a.CanBook)
	})
}

func TestUserPublicStripsHash(t *testing.T) {
	u := User{ID: "u1", PasswordHash: "secret"}
	assert.Empty(t, u.Public().PasswordHash)
	assert.Equal(t, "secret", u.PasswordHash)
}

func TestRoles(t *testing.T) {
	assert.True(t, RoleAdmin.IsStaff())
	assert.True(t, RolePrincipal.IsStaff())
	assert.False(t, RoleStudent.IsStaff())
	assert.False(t, Role("janitor").Valid())
	assert.ElementsMatch(t, []string{"admin", "principal"}, StaffRoles())
}

func TestSumDeltas(t *testing.T) {
	h := []Activity{{Delta: 100}, {Delta: -30}, {Delta: 5}}
	assert.Equal(t, int64(75), SumDeltas(h))
	assert.Zero(t, SumDeltas(nil))
}
