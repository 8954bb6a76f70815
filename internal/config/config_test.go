package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:test.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment.Name)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
	assert.Equal(t, float64(20), cfg.Webhook.RateLimit)
	assert.Equal(t, 40, cfg.Webhook.RateBurst)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "order-events", cfg.Kafka.OrderTopic)
	assert.False(t, cfg.Inventory.DecrementOnOrder)
	assert.False(t, cfg.Inventory.RestockOnApproval)
	assert.Equal(t, "Asia/Ho_Chi_Minh", cfg.Webhook.Timezone)
	assert.Equal(t, 10, cfg.Pagination.DefaultLimit)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("INVENTORY_DECREMENT_ON_ORDER", "true")
	t.Setenv("ANALYTICS_TIMEZONE", "Asia/Ho_Chi_Minh")
	t.Setenv("WEBHOOK_RATE_LIMIT", "2.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Inventory.DecrementOnOrder)
	assert.Equal(t, 2.5, cfg.Webhook.RateLimit)

	loc, err := cfg.Analytics.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Ho_Chi_Minh", loc.String())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]map[string]string{
		"missing database url": {},
		"unknown driver":       {"DATABASE_URL": "x", "DATABASE_DRIVER": "oracle"},
		"unknown log format":   {"DATABASE_URL": "x", "LOG_FORMAT": "xml"},
		"bad timezone":         {"DATABASE_URL": "x", "ANALYTICS_TIMEZONE": "Mars/Olympus"},
		"bad bank timezone":    {"DATABASE_URL": "x", "WEBHOOK_TIMEZONE": "Mars/Olympus"},
		"bad pagination":       {"DATABASE_URL": "x", "PAGINATION_DEFAULT_LIMIT": "50", "PAGINATION_MAX_LIMIT": "10"},
	}

	for name, vars := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
