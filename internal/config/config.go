package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"wabridge/internal/constants"
	"wabridge/internal/models"

	"github.com/sirupsen/logrus"
)

// LoadConfig reads the JSON config file (when present), applies environment
// overrides and defaults, and validates the result. Every missing required
// value is logged individually before the error is returned, so an operator
// sees the full list instead of fixing one item per restart.
func LoadConfig(path string, logger *logrus.Logger) (*models.Config, error) {
	var config models.Config

	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.WithField("path", path).Debug("No config file, using environment only")
		case err != nil:
			return nil, err
		default:
			if err := json.Unmarshal(file, &config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	applyEnvironmentOverrides(&config)
	applyDefaults(&config)

	if missing := missingRequired(&config); len(missing) > 0 {
		for _, key := range missing {
			logger.Warnf("Missing required configuration: %s", key)
		}
		return nil, models.ConfigError{
			Message: fmt.Sprintf("missing required configuration: %s", strings.Join(missing, ", ")),
		}
	}

	return &config, nil
}

// Environment variable names match the original deployment so existing
// process supervisor units keep working.
func applyEnvironmentOverrides(c *models.Config) {
	if url := os.Getenv("SERVER"); url != "" {
		c.Control.URL = url
	}
	if blob := os.Getenv("CONFIG"); blob != "" {
		c.Bot = json.RawMessage(blob)
	}
	if v := os.Getenv("API_VERSION"); v != "" {
		c.WhatsApp.APIVersion = v
	}
	if token := os.Getenv("ACCESS_TOKEN"); token != "" {
		c.WhatsApp.AccessToken = token
	}
	if token := os.Getenv("VERIFY_TOKEN"); token != "" {
		c.WhatsApp.VerifyToken = token
	}
	if id := os.Getenv("PHONE_NUMBER_ID"); id != "" {
		c.WhatsApp.PhoneNumberID = id
	}
	if secret := os.Getenv("APP_SECRET"); secret != "" {
		c.WhatsApp.AppSecret = secret
	}
	if url := os.Getenv("GRAPH_API_URL"); url != "" {
		c.WhatsApp.APIBaseURL = url
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
}

func applyDefaults(c *models.Config) {
	if c.WhatsApp.APIBaseURL == "" {
		c.WhatsApp.APIBaseURL = constants.DefaultGraphAPIBaseURL
	}
	if c.WhatsApp.TimeoutSec <= 0 {
		c.WhatsApp.TimeoutSec = constants.DefaultHTTPTimeoutSec
	}
	if c.Server.Port <= 0 {
		c.Server.Port = constants.DefaultServerPort
	}
	if c.Server.ReadTimeoutSec <= 0 {
		c.Server.ReadTimeoutSec = constants.DefaultServerReadTimeoutSec
	}
	if c.Server.WriteTimeoutSec <= 0 {
		c.Server.WriteTimeoutSec = constants.DefaultServerWriteTimeoutSec
	}
	if c.Server.IdleTimeoutSec <= 0 {
		c.Server.IdleTimeoutSec = constants.DefaultServerIdleTimeoutSec
	}
	if c.KeepaliveSec <= 0 {
		c.KeepaliveSec = constants.DefaultKeepaliveIntervalSec
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "wabridge"
	}
}

func missingRequired(c *models.Config) []string {
	var missing []string
	if c.Control.URL == "" {
		missing = append(missing, "SERVER")
	}
	if len(c.Bot) == 0 {
		missing = append(missing, "CONFIG")
	}
	if c.WhatsApp.APIVersion == "" {
		missing = append(missing, "API_VERSION")
	}
	if c.WhatsApp.AccessToken == "" {
		missing = append(missing, "ACCESS_TOKEN")
	}
	if c.WhatsApp.VerifyToken == "" {
		missing = append(missing, "VERIFY_TOKEN")
	}
	if c.WhatsApp.PhoneNumberID == "" {
		missing = append(missing, "PHONE_NUMBER_ID")
	}
	return missing
}
