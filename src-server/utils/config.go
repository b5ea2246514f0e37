package utils

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

type Config struct {
	port string

	discordGuildID    string
	discordAppToken   string
	discordClientId   string
	calendarChannelID string

	useAuth bool

	maxTitleLen int
	maxDescLen  int

	databasePath string
	location     *time.Location

	notifyCron   string
	notifyWindow time.Duration

	metricCollectionInterval time.Duration
}

func NewConfig() *Config {
	return &Config{
		port: func() string {
			port := os.Getenv("PORT")
			if port == "" {
				port = "8080"
			}
			slog.Debug("env", "PORT", port)
			return port
		}(),

		discordGuildID: func() string {
			discordGuildID := os.Getenv("DISCORD_GUILD_ID")
			if discordGuildID == "" {
				slog.Error("DISCORD_GUILD_ID is not set")
				os.Exit(1)
			}
			slog.Debug("env", "DISCORD_GUILD_ID", discordGuildID)
			return discordGuildID
		}(),
		discordAppToken: func() string {
			discordAppToken := os.Getenv("DISCORD_APP_TOKEN")
			if discordAppToken == "" {
				slog.Error("DISCORD_APP_TOKEN is not set")
				os.Exit(1)
			}
			slog.Debug("env", "DISCORD_APP_TOKEN", discordAppToken[0:3]+"...")
			return discordAppToken
		}(),
		discordClientId: func() string {
			discordClientId := os.Getenv("DISCORD_CLIENT_ID")
			if discordClientId == "" {
				slog.Error("DISCORD_CLIENT_ID is not set")
				os.Exit(1)
			}
			slog.Debug("env", "DISCORD_CLIENT_ID", discordClientId)
			return discordClientId
		}(),
		calendarChannelID: func() string {
			calendarChannelID := os.Getenv("CALENDAR_CHANNEL_ID")
			if calendarChannelID == "" {
				slog.Error("CALENDAR_CHANNEL_ID is not set")
				os.Exit(1)
			}
			slog.Debug("env", "CALENDAR_CHANNEL_ID", calendarChannelID)
			return calendarChannelID
		}(),

		useAuth: func() bool {
			useAuth := os.Getenv("USE_AUTH")
			if useAuth == "" {
				return false
			}
			parsed, err := strconv.ParseBool(useAuth)
			if err != nil {
				slog.Error("invalid USE_AUTH", "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "USE_AUTH", parsed)
			return parsed
		}(),

		maxTitleLen: func() int {
			maxTitleLen := os.Getenv("EVENT_TITLE_MAX_LEN")
			if maxTitleLen == "" {
				return 100
			}
			parsed, err := strconv.Atoi(maxTitleLen)
			if err != nil || parsed <= 0 {
				slog.Error("invalid EVENT_TITLE_MAX_LEN", "value", maxTitleLen)
				os.Exit(1)
			}
			slog.Debug("env", "EVENT_TITLE_MAX_LEN", parsed)
			return parsed
		}(),
		maxDescLen: func() int {
			maxDescLen := os.Getenv("EVENT_DESC_MAX_LEN")
			if maxDescLen == "" {
				return 1000
			}
			parsed, err := strconv.Atoi(maxDescLen)
			if err != nil || parsed <= 0 {
				slog.Error("invalid EVENT_DESC_MAX_LEN", "value", maxDescLen)
				os.Exit(1)
			}
			slog.Debug("env", "EVENT_DESC_MAX_LEN", parsed)
			return parsed
		}(),

		databasePath: func() string {
			databasePath := os.Getenv("DATABASE_PATH")
			if databasePath == "" {
				databasePath = "./sqlite.db"
			}
			slog.Debug("env", "DATABASE_PATH", databasePath)
			return databasePath
		}(),
		location: func() *time.Location {
			timezoneStr := os.Getenv("TIMEZONE")
			var loc *time.Location
			if timezoneStr == "" {
				loc = time.Local
			} else {
				var err error
				loc, err = time.LoadLocation(timezoneStr)
				if err != nil {
					slog.Error("invalid TIMEZONE", "error", err)
					os.Exit(1)
				}
			}
			slog.Debug("env", "TIMEZONE", loc.String())
			return loc
		}(),

		notifyCron: func() string {
			notifyCron := os.Getenv("NOTIFY_CRON")
			if notifyCron == "" {
				notifyCron = "@every 30s"
			}
			slog.Debug("env", "NOTIFY_CRON", notifyCron)
			return notifyCron
		}(),
		notifyWindow: func() time.Duration {
			notifyWindow := os.Getenv("NOTIFY_WINDOW")
			if notifyWindow == "" {
				notifyWindow = "15m"
			}
			duration, err := time.ParseDuration(notifyWindow)
			if err != nil {
				slog.Error("invalid NOTIFY_WINDOW", "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "NOTIFY_WINDOW", duration)
			return duration
		}(),

		metricCollectionInterval: func() time.Duration {
			interval := os.Getenv("METRIC_COLLECTION_INTERVAL")
			if interval == "" {
				interval = "1m"
			}
			duration, err := time.ParseDuration(interval)
			if err != nil {
				slog.Error("invalid METRIC_COLLECTION_INTERVAL", "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "METRIC_COLLECTION_INTERVAL", duration)
			return duration
		}(),
	}
}

func (c *Config) GetPort() string {
	return c.port
}

func (c *Config) GetDiscordGuildID() string {
	return c.discordGuildID
}

func (c *Config) GetDiscordAppToken() string {
	return c.discordAppToken
}

func (c *Config) GetDiscordClientId() string {
	return c.discordClientId
}

func (c *Config) GetCalendarChannelID() string {
	return c.calendarChannelID
}

func (c *Config) GetUseAuth() bool {
	return c.useAuth
}

func (c *Config) GetMaxTitleLen() int {
	return c.maxTitleLen
}

func (c *Config) GetMaxDescLen() int {
	return c.maxDescLen
}

func (c *Config) GetDatabasePath() string {
	return c.databasePath
}

func (c *Config) GetLocation() *time.Location {
	return c.location
}

func (c *Config) GetNotifyCron() string {
	return c.notifyCron
}

func (c *Config) GetNotifyWindow() time.Duration {
	return c.notifyWindow
}

func (c *Config) GetMetricCollectionInterval() time.Duration {
	return c.metricCollectionInterval
}
