package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/nikopaulanne/dsmr-custom/pkg/decryptor"
	"github.com/nikopaulanne/dsmr-custom/pkg/obis"
	"github.com/nikopaulanne/dsmr-custom/pkg/pathing"
)

var (
	ActiveTelegramAPIConfig      *TelegramAPIConfig
	ActiveReadingCollectorConfig *ReadingCollectorConfig
)

func defaultTelegramAPIConfig() *TelegramAPIConfig {
	return &TelegramAPIConfig{
		SerialDevice:      "/dev/ttyUSB0",
		Baudrate:          115200,
		ListenAddress:     "0.0.0.0",
		ListenPort:        9039,
		MaxTelegramLength: 1500,
		RequestPin:        -1,
		RequestIntervalMs: 0,
		ReceiveTimeoutMs:  200,
		CrcCheck:          true,
		GasChannelID:      1,
		WaterChannelID:    2,
	}
}

func LoadTelegramAPIConfig() error {
	configPath := filepath.Join(pathing.GetConfigDir(), "telegram_api.toml")

	// Create default if not exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := defaultTelegramAPIConfig()
		cfgFile, err := os.Create(configPath)
		if err != nil {
			return err
		}
		defer cfgFile.Close()
		toml.NewEncoder(cfgFile).Encode(cfg)
		ActiveTelegramAPIConfig = cfg
		return nil
	}

	var config TelegramAPIConfig
	_, err := toml.DecodeFile(configPath, &config)
	if err != nil {
		return err
	}
	if err := ValidateTelegramAPIConfig(&config); err != nil {
		return err
	}
	ActiveTelegramAPIConfig = &config
	return nil
}

// ValidateTelegramAPIConfig rejects static misconfiguration before any
// acquisition begins. Runtime transients never come through here.
func ValidateTelegramAPIConfig(cfg *TelegramAPIConfig) error {
	if cfg.MaxTelegramLength <= 0 {
		return fmt.Errorf("max_telegram_length must be positive, got %d", cfg.MaxTelegramLength)
	}
	if cfg.ReceiveTimeoutMs < 0 {
		return fmt.Errorf("receive_timeout_ms must not be negative, got %d", cfg.ReceiveTimeoutMs)
	}
	if cfg.RequestIntervalMs < 0 {
		return fmt.Errorf("request_interval_ms must not be negative, got %d", cfg.RequestIntervalMs)
	}
	if cfg.DecryptionKey != "" {
		if _, err := decryptor.ParseKey(cfg.DecryptionKey); err != nil {
			return err
		}
	}
	if cfg.GasChannelID < 0 || cfg.GasChannelID > 255 {
		return fmt.Errorf("gas_channel_id must be 0-255, got %d", cfg.GasChannelID)
	}
	if cfg.WaterChannelID < 0 || cfg.WaterChannelID > 255 {
		return fmt.Errorf("water_channel_id must be 0-255, got %d", cfg.WaterChannelID)
	}
	for _, cs := range cfg.CustomSensors {
		if _, err := obis.Parse(cs.Code); err != nil {
			return fmt.Errorf("custom sensor %q: %w", cs.Name, err)
		}
		if cs.Type != "numeric" && cs.Type != "text" {
			return fmt.Errorf("custom sensor %q: type must be numeric or text, got %q", cs.Name, cs.Type)
		}
		if cs.Name == "" {
			return fmt.Errorf("custom sensor for %s: name is required", cs.Code)
		}
	}
	return nil
}

func LoadReadingCollectorConfig() error {
	configPath := filepath.Join(pathing.GetConfigDir(), "reading_collector.toml")

	// Create default if not exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := &ReadingCollectorConfig{
			TelegramAPIHost: "localhost:9039",
			TLSEnabled:      false,
		}
		cfgFile, err := os.Create(configPath)
		if err != nil {
			return err
		}
		defer cfgFile.Close()
		toml.NewEncoder(cfgFile).Encode(cfg)
		ActiveReadingCollectorConfig = cfg
		return nil
	}

	var config ReadingCollectorConfig
	_, err := toml.DecodeFile(configPath, &config)
	if err != nil {
		return err
	}
	ActiveReadingCollectorConfig = &config
	return nil
}
