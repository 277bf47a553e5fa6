package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserBeforeCreate_NormalizesPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+5511999999999", "+5511999999999"},
		{"5511999999999", "+5511999999999"},
		{"11999999999", "+5511999999999"},
		{"+55 11 99999 9999", "+5511999999999"},
		{"", ""},
	}

	for _, tt := range tests {
		user := &User{WhatsAppPhone: tt.in}
		require.NoError(t, user.BeforeCreate(nil))
		assert.Equal(t, tt.want, user.WhatsAppPhone, "input %q", tt.in)
	}
}

func TestUserBeforeCreate_DefaultsPlan(t *testing.T) {
	user := &User{}
	require.NoError(t, user.BeforeCreate(nil))
	assert.Equal(t, PlanFree, user.PlanType)

	user = &User{PlanType: PlanPremium}
	require.NoError(t, user.BeforeCreate(nil))
	assert.Equal(t, PlanPremium, user.PlanType)
}

func TestIsPremium(t *testing.T) {
	assert.False(t, (&User{PlanType: PlanFree}).IsPremium())
	assert.False(t, (&User{}).IsPremium())
	assert.True(t, (&User{PlanType: PlanPremium}).IsPremium())
}

func TestFirstName(t *testing.T) {
	assert.Equal(t, "Ana", (&User{Name: "Ana Souza"}).FirstName())
	assert.Equal(t, "Ana", (&User{Name: "Ana"}).FirstName())
	assert.Equal(t, "", (&User{}).FirstName())
}
