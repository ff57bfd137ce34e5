package postgres

import (
	"testing"

	"github.com/sifan077/TrackDesk/config"
	"github.com/stretchr/testify/assert"
)

func TestConnString(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.PostgresConfig
		want string
	}{
		{
			name: "defaults",
			cfg:  config.PostgresConfig{User: "app", Database: "trackdesk"},
			want: "postgres://app@localhost:5432/trackdesk?sslmode=disable",
		},
		{
			name: "escaped password",
			cfg: config.PostgresConfig{
				Host:     "db",
				Port:     6543,
				User:     "app",
				Password: "p@ss/word",
				Database: "history",
				SSLMode:  "require",
			},
			want: "postgres://app:p@ss%2Fword@db:6543/history?sslmode=require",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConnString(tt.cfg))
		})
	}
}
