package config

// CustomSensorConfig declares a user-supplied OBIS binding. A custom
// binding for a code a standard sensor also covers silently overrides the
// standard one.
type CustomSensorConfig struct {
	Code string `toml:"code"`
	Name string `toml:"name"`
	// Type is "numeric" or "text".
	Type string `toml:"type"`
}

type TelegramAPIConfig struct {
	SerialDevice  string `toml:"serial_device"`
	Baudrate      uint   `toml:"baudrate"`
	ListenAddress string `toml:"listen_address"`
	ListenPort    int    `toml:"listen_port"`

	MaxTelegramLength int `toml:"max_telegram_length"`
	// DecryptionKey is empty or exactly 32 hex characters (16 bytes).
	DecryptionKey string `toml:"decryption_key"`
	// RequestPin is a GPIO id; -1 means no wake pin.
	RequestPin int `toml:"request_pin"`
	// RequestIntervalMs of 0 means continuous acquisition.
	RequestIntervalMs int  `toml:"request_interval_ms"`
	ReceiveTimeoutMs  int  `toml:"receive_timeout_ms"`
	CrcCheck          bool `toml:"crc_check"`

	GasChannelID   int `toml:"gas_channel_id"`
	WaterChannelID int `toml:"water_channel_id"`

	CustomSensors []CustomSensorConfig `toml:"custom_sensors"`

	// Optional solar inverter poller. Empty IP disables it.
	SolarInverterIp         string `toml:"solar_inverter_ip"`
	SolarInverterModbusPort int    `toml:"solar_inverter_modbus_port"`
}

type ReadingCollectorConfig struct {
	TelegramAPIHost string `toml:"telegram_api_host"`
	TLSEnabled      bool   `toml:"tls_enabled"`
}
