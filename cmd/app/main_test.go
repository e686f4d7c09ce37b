package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveSchedule(t *testing.T) {
	tests := []struct {
		name     string
		appEnv   string
		override string
		expected string
	}{
		{
			name:     "生产环境默认每天下午两点",
			appEnv:   "production",
			expected: "0 14 * * *",
		},
		{
			name:     "开发环境默认每小时",
			appEnv:   "development",
			expected: "0 * * * *",
		},
		{
			name:     "未设置环境按开发处理",
			expected: "0 * * * *",
		},
		{
			name:     "显式配置优先于环境默认",
			appEnv:   "production",
			override: "*/30 * * * *",
			expected: "*/30 * * * *",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, resolveSchedule(tt.appEnv, tt.override))
		})
	}
}

func TestLoadConfig(t *testing.T) {
	env := func(vars map[string]string) func(string) string {
		return func(key string) string { return vars[key] }
	}

	t.Run("缺少数据库地址直接报错", func(t *testing.T) {
		_, err := loadConfig(env(map[string]string{}))
		assert.Error(t, err)
	})

	t.Run("填充默认值", func(t *testing.T) {
		cfg, err := loadConfig(env(map[string]string{
			"DATABASE_URL": "postgres://localhost/star_spark",
		}))
		assert.NoError(t, err)
		assert.Equal(t, 90, cfg.windowDays)
		assert.Equal(t, "http://localhost:3000", cfg.appBaseURL)
		assert.Equal(t, "0 * * * *", cfg.schedule)
	})

	t.Run("读取完整配置", func(t *testing.T) {
		cfg, err := loadConfig(env(map[string]string{
			"DATABASE_URL":         "postgres://localhost/star_spark",
			"SENDGRID_API_KEY":     "SG.test",
			"EMAIL_FROM":           "digest@starspark.dev",
			"APP_BASE_URL":         "https://starspark.dev",
			"REMINDER_WINDOW_DAYS": "30",
			"APP_ENV":              "production",
		}))
		assert.NoError(t, err)
		assert.Equal(t, "SG.test", cfg.sendgridAPIKey)
		assert.Equal(t, "digest@starspark.dev", cfg.emailFrom)
		assert.Equal(t, "https://starspark.dev", cfg.appBaseURL)
		assert.Equal(t, 30, cfg.windowDays)
		assert.Equal(t, "0 14 * * *", cfg.schedule)
	})

	t.Run("回看窗口配置非法报错", func(t *testing.T) {
		_, err := loadConfig(env(map[string]string{
			"DATABASE_URL":         "postgres://localhost/star_spark",
			"REMINDER_WINDOW_DAYS": "not-a-number",
		}))
		assert.Error(t, err)

		_, err = loadConfig(env(map[string]string{
			"DATABASE_URL":         "postgres://localhost/star_spark",
			"REMINDER_WINDOW_DAYS": "-5",
		}))
		assert.Error(t, err)
	})
}
