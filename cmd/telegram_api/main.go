// Telegram API is responsible for acquiring P1 telegrams from the meter and
// broadcasting the decoded readings.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jacobsa/go-serial/serial"
	"github.com/nikopaulanne/dsmr-custom/pkg/acquisition"
	"github.com/nikopaulanne/dsmr-custom/pkg/broadcaster"
	"github.com/nikopaulanne/dsmr-custom/pkg/config"
	"github.com/nikopaulanne/dsmr-custom/pkg/decryptor"
	"github.com/nikopaulanne/dsmr-custom/pkg/dispatch"
	"github.com/nikopaulanne/dsmr-custom/pkg/fields"
	"github.com/nikopaulanne/dsmr-custom/pkg/framer"
	"github.com/nikopaulanne/dsmr-custom/pkg/snapshot"
	"github.com/nikopaulanne/dsmr-custom/pkg/solarinverter"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

var (
	hub   = broadcaster.NewHub()
	store = snapshot.NewStore()
)

func main() {
	// Load config
	if err := config.LoadTelegramAPIConfig(); err != nil {
		log.Fatalf("Failed to load telegram API config: %v", err)
	}
	cfg := config.ActiveTelegramAPIConfig

	driver, registry, err := buildDriver(cfg)
	if err != nil {
		log.Fatalf("Failed to build acquisition driver: %v", err)
	}

	// Drive the state machine. A single goroutine owns the whole
	// pipeline; everything else only reads snapshots and counters.
	go func() {
		for {
			driver.Tick()
			time.Sleep(2 * time.Millisecond)
		}
	}()

	// Setup HTTP handlers
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		response := map[string]string{
			"message": "DSMR Telegram API",
			"status":  "running",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	})

	http.HandleFunc("/latest", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if store.Empty() {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "No readings available yet",
			})
			return
		}
		json.NewEncoder(w).Encode(store.Latest())
	})

	http.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"state":          driver.State().String(),
			"counters":       driver.Counters(),
			"sinks_rejected": registry.Rejected(),
		})
	})

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}

		hub.AddClient(conn)

		// Send the latest known readings immediately if available
		for _, reading := range store.Latest() {
			conn.WriteMessage(websocket.TextMessage, reading.ToJsonBytes())
		}

		// Keep connection alive
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				hub.RemoveClient(conn)
				break
			}
		}
	})

	// May be fast or slow depending on cached response from inverter.
	http.HandleFunc("/solar", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		power, err := solarinverter.ReadSolarData()
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{
				"error": err.Error(),
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]int32{
			"currentProduction": power,
		})
	})

	listener := fmt.Sprintf("%s:%d", cfg.ListenAddress, cfg.ListenPort)

	log.Printf("Starting DSMR Telegram API on %s", listener)
	log.Fatal(http.ListenAndServe(listener, nil))
}

// buildDriver assembles the full acquisition pipeline from the loaded config.
func buildDriver(cfg *config.TelegramAPIConfig) (*acquisition.Driver, *dispatch.Registry, error) {
	channels := fields.DefaultChannels
	channels.Gas = cfg.GasChannelID
	channels.Water = cfg.WaterChannelID
	units := fields.BuildIndex(channels)

	var key []byte
	if cfg.DecryptionKey != "" {
		var err error
		key, err = decryptor.ParseKey(cfg.DecryptionKey)
		if err != nil {
			return nil, nil, fmt.Errorf("bad decryption key: %w", err)
		}
	}
	dec, err := decryptor.New(key, decryptor.DefaultProfile)
	if err != nil {
		return nil, nil, err
	}

	frameCfg := framer.Config{
		Mode:              framer.ModePlaintext,
		MaxTelegramLength: cfg.MaxTelegramLength,
		ReceiveTimeout:    time.Duration(cfg.ReceiveTimeoutMs) * time.Millisecond,
	}
	if dec.Enabled() {
		frameCfg.Mode = framer.ModeEncrypted
		frameCfg.Marker = decryptor.DefaultProfile.Marker
		frameCfg.SystemTitleLen = decryptor.DefaultProfile.SystemTitleLen
		frameCfg.TagLen = decryptor.DefaultProfile.TagLen
	}

	registry, err := buildRegistry(units, cfg.CustomSensors)
	if err != nil {
		return nil, nil, err
	}

	source, err := openSerialSource(cfg.SerialDevice, cfg.Baudrate)
	if err != nil {
		return nil, nil, err
	}

	var pin acquisition.RequestPin
	if cfg.RequestPin >= 0 {
		pin, err = openGpioPin(cfg.RequestPin)
		if err != nil {
			return nil, nil, fmt.Errorf("request pin setup failed: %w", err)
		}
	}

	driverCfg := acquisition.Config{
		RequestInterval: time.Duration(cfg.RequestIntervalMs) * time.Millisecond,
		ReceiveTimeout:  time.Duration(cfg.ReceiveTimeoutMs) * time.Millisecond,
		CrcCheck:        cfg.CrcCheck,
	}
	return acquisition.NewDriver(driverCfg, source, pin, framer.New(frameCfg), dec, units, registry), registry, nil
}

// buildRegistry binds every standard field plus the configured custom
// sensors to the websocket hub and the latest-value store, then seals the
// registry so dispatch can run lock-free.
func buildRegistry(units fields.Index, custom []config.CustomSensorConfig) (*dispatch.Registry, error) {
	registry := dispatch.NewRegistry()

	for _, field := range units {
		if err := registry.Bind(string(field.Code), field.Name, hub, dispatch.Standard); err != nil {
			return nil, err
		}
		if err := registry.Bind(string(field.Code), field.Name, store, dispatch.Standard); err != nil {
			return nil, err
		}
	}
	for _, sensor := range custom {
		if err := registry.Bind(sensor.Code, sensor.Name, hub, dispatch.Custom); err != nil {
			return nil, fmt.Errorf("custom sensor %q: %w", sensor.Name, err)
		}
		if err := registry.Bind(sensor.Code, sensor.Name, store, dispatch.Custom); err != nil {
			return nil, fmt.Errorf("custom sensor %q: %w", sensor.Name, err)
		}
	}

	registry.Seal()
	return registry, nil
}

// serialSource pumps bytes from the P1 port into a buffered channel so the
// driver can poll without blocking.
type serialSource struct {
	ch chan byte
}

func openSerialSource(device string, baudrate uint) (*serialSource, error) {
	options := serial.OpenOptions{
		PortName:        device,
		BaudRate:        baudrate,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
	}

	port, err := serial.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	log.Printf("Connected to P1 port on %s", device)

	s := &serialSource{ch: make(chan byte, 4096)}
	go func() {
		defer port.Close()
		buf := make([]byte, 512)
		for {
			n, err := port.Read(buf)
			if err != nil {
				log.Fatalf("Error reading P1 port: %v", err)
			}
			for _, b := range buf[:n] {
				s.ch <- b
			}
		}
	}()
	return s, nil
}

func (s *serialSource) ReadByte() (byte, bool) {
	select {
	case b := <-s.ch:
		return b, true
	default:
		return 0, false
	}
}

// gpioPin drives the optional data-request line through the sysfs GPIO
// interface. The meter only transmits while the line is held high.
type gpioPin struct {
	valuePath string
}

func openGpioPin(id int) (*gpioPin, error) {
	base := fmt.Sprintf("/sys/class/gpio/gpio%d", id)
	if _, err := os.Stat(base); os.IsNotExist(err) {
		if err := os.WriteFile("/sys/class/gpio/export", fmt.Appendf(nil, "%d", id), 0644); err != nil {
			return nil, err
		}
		// The gpio directory appears asynchronously after export
		time.Sleep(100 * time.Millisecond)
	}
	if err := os.WriteFile(base+"/direction", []byte("out"), 0644); err != nil {
		return nil, err
	}
	pin := &gpioPin{valuePath: base + "/value"}
	pin.Deassert()
	return pin, nil
}

func (p *gpioPin) Assert() {
	if err := os.WriteFile(p.valuePath, []byte("1"), 0644); err != nil {
		log.Printf("Failed to assert request pin: %v", err)
	}
}

func (p *gpioPin) Deassert() {
	if err := os.WriteFile(p.valuePath, []byte("0"), 0644); err != nil {
		log.Printf("Failed to deassert request pin: %v", err)
	}
}
