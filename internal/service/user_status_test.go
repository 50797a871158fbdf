package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/silverlode/fleetpanel/internal/repository"
)

func TestStatusOfPrecedence(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	past := now.Unix() - 3600
	future := now.Unix() + 3600
	limit := int64(100)

	tests := []struct {
		name string
		user repository.User
		want repository.UserStatus
	}{
		{
			name: "active",
			user: repository.User{ActivatedAt: &past},
			want: repository.UserStatusActive,
		},
		{
			name: "on hold when never activated",
			user: repository.User{},
			want: repository.UserStatusOnHold,
		},
		{
			name: "limited when usage reaches quota",
			user: repository.User{ActivatedAt: &past, DataLimit: &limit, UsedTraffic: 100},
			want: repository.UserStatusLimited,
		},
		{
			name: "expired at exact boundary",
			user: repository.User{ActivatedAt: &past, ExpireAt: func() *int64 { v := now.Unix(); return &v }()},
			want: repository.UserStatusExpired,
		},
		{
			name: "future expiry stays active",
			user: repository.User{ActivatedAt: &past, ExpireAt: &future},
			want: repository.UserStatusActive,
		},
		{
			name: "disabled wins over expired and limited",
			user: repository.User{IsDisabled: true, ExpireAt: &past, DataLimit: &limit, UsedTraffic: 200},
			want: repository.UserStatusDisabled,
		},
		{
			name: "expired wins over limited",
			user: repository.User{ActivatedAt: &past, ExpireAt: &past, DataLimit: &limit, UsedTraffic: 200},
			want: repository.UserStatusExpired,
		},
		{
			name: "limited wins over on hold",
			user: repository.User{DataLimit: &limit, UsedTraffic: 100},
			want: repository.UserStatusLimited,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(&tt.user, now))
		})
	}
}
