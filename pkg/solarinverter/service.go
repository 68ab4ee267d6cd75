package solarinverter

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
	"github.com/nikopaulanne/dsmr-custom/pkg/config"
	probing "github.com/prometheus-community/pro-bing"
)

var (
	ErrModbusNotConfigured = fmt.Errorf("modbus not configured")
	ErrModbusReadFailed    = fmt.Errorf("modbus read failed")
	ErrModbusNotReachable  = fmt.Errorf("modbus host not reachable")
)

var (
	solarPowerMu      sync.Mutex
	lastSolarReadWatt int32 = 0
	lastSolarReadTime time.Time
)

// IsModbusConfigured checks if the modbus configuration is set.
// This feature is optional, empty values as config are acceptable.
func IsModbusConfigured() bool {
	return config.ActiveTelegramAPIConfig.SolarInverterIp != "" &&
		config.ActiveTelegramAPIConfig.SolarInverterModbusPort != 0
}

func ReadSolarData() (int32, error) {
	// Check if configured
	if !IsModbusConfigured() {
		return 0, ErrModbusNotConfigured
	}

	// Use cached reads to avoid spamming the poor inverter
	solarPowerMu.Lock()
	defer solarPowerMu.Unlock()
	if lastSolarReadTime.After(time.Now().Add(-10 * time.Second)) {
		return lastSolarReadWatt, nil
	}

	const maxRetries = 3
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		// Ping check before attempting modbus connection
		if ok, _, err := ping(config.ActiveTelegramAPIConfig.SolarInverterIp); !ok || err != nil {
			lastErr = fmt.Errorf("ping failed on attempt %d: %w", attempt+1, errors.Join(ErrModbusNotReachable, err))
			if attempt < maxRetries-1 {
				time.Sleep(2 * time.Second)
			}
			continue
		}

		host := config.ActiveTelegramAPIConfig.SolarInverterIp
		port := config.ActiveTelegramAPIConfig.SolarInverterModbusPort

		handler := modbus.NewTCPClientHandler(fmt.Sprintf("%s:%d", host, port))
		handler.Timeout = 10 * time.Second
		handler.SlaveId = 0

		if err := handler.Connect(); err != nil {
			lastErr = fmt.Errorf("connection failed on attempt %d: %w", attempt+1, err)
			handler.Close()
			if attempt < maxRetries-1 {
				time.Sleep(2 * time.Second)
			}
			continue
		}

		// The 2s delay after connecting causes everything to not implode as much
		time.Sleep(2 * time.Second)
		client := modbus.NewClient(handler)

		// Read Active Power
		result, err := client.ReadHoldingRegisters(32080, 2)
		handler.Close()

		if err != nil {
			lastErr = fmt.Errorf("read power failed on attempt %d: %w", attempt+1, err)
			if attempt < maxRetries-1 {
				time.Sleep(2 * time.Second)
			}
			continue
		}

		// Success - calculate power and return
		power := int32(result[0])<<24 | int32(result[1])<<16 | int32(result[2])<<8 | int32(result[3])
		lastSolarReadWatt = power
		lastSolarReadTime = time.Now()
		return power, nil
	}

	return 0, errors.Join(ErrModbusReadFailed, lastErr)
}

func ping(host string) (bool, time.Duration, error) {
	pinger, err := probing.NewPinger(host)
	if err != nil {
		return false, 0, err
	}

	pinger.Count = 1
	pinger.Timeout = 2 * time.Second
	pinger.SetPrivileged(false) // UDP-based, no root needed

	err = pinger.Run()
	if err != nil {
		return false, 0, err
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv > 0 {
		return true, stats.AvgRtt, nil
	}

	return false, 0, fmt.Errorf("no response")
}
