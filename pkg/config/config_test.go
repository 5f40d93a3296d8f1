package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	require.NotNil(t, cfg)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "Asia/Tashkent", cfg.Appeals.Timezone)
	assert.Equal(t, 15, cfg.Appeals.GracePeriodDays)
	assert.Equal(t, 5, cfg.Appeals.ReminderWindowDays)
	assert.Equal(t, "09:00", cfg.Reminders.RunAt)
	assert.Equal(t, 10*time.Minute, cfg.Reminders.LockTTL)
	assert.Equal(t, 3, cfg.Notifications.Retries)
	assert.True(t, cfg.Database.RunMigrations)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("APPEALS_GRACE_DAYS", 0)
	v.Set("NOTIFY_RETRY_DELAY", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := fromViper(v)
	assert.Equal(t, 15, cfg.Appeals.GracePeriodDays)
	assert.Equal(t, 5*time.Second, cfg.Notifications.RetryDelay)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}
