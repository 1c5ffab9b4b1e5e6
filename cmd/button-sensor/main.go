// Command button-sensor watches panel buttons on GPIO lines and publishes
// debounced press events to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tgarrett/button-sensor/internal/debounce"
	"github.com/tgarrett/button-sensor/internal/gpio"
	"github.com/tgarrett/button-sensor/internal/mqtt"
	"github.com/tgarrett/button-sensor/internal/status"
	"github.com/tgarrett/button-sensor/internal/web"
)

// ButtonSpec is one -button flag value: "name:pin" or "name:pin:ledpin".
type ButtonSpec struct {
	Name   string
	Pin    int
	LEDPin int // 0 = no linked LED
}

// buttonFlags collects repeated -button flags.
type buttonFlags []ButtonSpec

func (b *buttonFlags) String() string {
	specs := make([]string, len(*b))
	for i, spec := range *b {
		if spec.LEDPin != 0 {
			specs[i] = fmt.Sprintf("%s:%d:%d", spec.Name, spec.Pin, spec.LEDPin)
		} else {
			specs[i] = fmt.Sprintf("%s:%d", spec.Name, spec.Pin)
		}
	}
	return strings.Join(specs, ",")
}

func (b *buttonFlags) Set(v string) error {
	spec, err := parseButtonSpec(v)
	if err != nil {
		return err
	}
	*b = append(*b, spec)
	return nil
}

func parseButtonSpec(v string) (ButtonSpec, error) {
	parts := strings.Split(v, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return ButtonSpec{}, fmt.Errorf("want name:pin[:ledpin], got %q", v)
	}
	if parts[0] == "" {
		return ButtonSpec{}, fmt.Errorf("empty button name in %q", v)
	}
	pin, err := strconv.Atoi(parts[1])
	if err != nil || pin < 0 {
		return ButtonSpec{}, fmt.Errorf("bad pin in %q", v)
	}
	spec := ButtonSpec{Name: parts[0], Pin: pin}
	if len(parts) == 3 {
		led, err := strconv.Atoi(parts[2])
		if err != nil || led <= 0 {
			return ButtonSpec{}, fmt.Errorf("bad led pin in %q", v)
		}
		spec.LEDPin = led
	}
	return spec, nil
}

// validateButtons rejects duplicate names and pins, which would otherwise
// fail deep inside GPIO line requests with a less useful error.
func validateButtons(buttons []ButtonSpec) error {
	names := make(map[string]bool)
	pins := make(map[int]bool)
	for _, b := range buttons {
		if names[b.Name] {
			return fmt.Errorf("duplicate button name %q", b.Name)
		}
		names[b.Name] = true
		if pins[b.Pin] {
			return fmt.Errorf("duplicate pin %d", b.Pin)
		}
		pins[b.Pin] = true
		if b.LEDPin != 0 {
			if pins[b.LEDPin] {
				return fmt.Errorf("led pin %d already in use", b.LEDPin)
			}
			pins[b.LEDPin] = true
		}
	}
	return nil
}

func main() {
	var buttons buttonFlags
	flag.Var(&buttons, "button", `Button spec "name:pin[:ledpin]" (repeatable)`)
	chipName := flag.String("chip", gpio.DefaultChip, "GPIO chip device name")
	poll := flag.Duration("poll", 10*time.Millisecond, "Event consume polling interval")
	window := flag.Duration("debounce", 500*time.Millisecond, "Debounce window per button")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	httpAddr := flag.String("http", ":80", "HTTP status address (empty to disable)")

	flag.Parse()

	if len(buttons) == 0 {
		buttons = buttonFlags{{Name: "button", Pin: gpio.DefaultButtonPin}}
	}
	if err := validateButtons(buttons); err != nil {
		log.Fatalf("invalid -button flags: %v", err)
	}

	if err := run(buttons, *chipName, *poll, *window, *broker, *heartbeat, *httpAddr); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(buttons []ButtonSpec, chipName string, poll, window time.Duration, broker string, heartbeat time.Duration, httpAddr string) error {
	// Initialize GPIO
	chip, err := gpio.NewRealChip(chipName)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer chip.Close()

	sources, err := setup(chip, buttons, window)
	if err != nil {
		return fmt.Errorf("setup buttons: %w", err)
	}

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      poll.Milliseconds(),
		DebounceMs:  window.Milliseconds(),
		HeartbeatMs: heartbeat.Milliseconds(),
		Broker:      broker,
		HTTPAddr:    httpAddr,
		Chip:        chipName,
	}, trackerButtons(buttons))
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Errorf("failed to publish startup event: %v", err)
	} else {
		log.Info("published startup event")
	}

	// Start HTTP status server
	if httpAddr != "" {
		srv := web.New(httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Infof("http status server listening on %s", httpAddr)
	}

	log.Infof("started: buttons=%d poll=%v debounce=%v broker=%s heartbeat=%v", len(buttons), poll, window, broker, heartbeat)

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(sources, chip, publisher, publisher, tracker, heartbeat, time.Now, ticker.C, sigCh)
}

// buttonSource pairs a configured button with its debounce source and the
// consumer-side press count.
type buttonSource struct {
	spec    ButtonSpec
	src     *debounce.Source
	presses int
}

// setup requests LED outputs and registers one edge handler per button.
// Each handler closes over its own debounce source, so buttons never share
// state; the handler body only converts the kernel timestamp and records the
// transition — it runs on the GPIO event goroutine and must stay short.
func setup(chip gpio.Chip, buttons []ButtonSpec, window time.Duration) ([]*buttonSource, error) {
	sources := make([]*buttonSource, 0, len(buttons))
	for _, spec := range buttons {
		if spec.LEDPin != 0 {
			if err := chip.RequestOutput(spec.LEDPin); err != nil {
				return nil, fmt.Errorf("button %s: %w", spec.Name, err)
			}
		}

		src := debounce.NewSource(window)
		if err := chip.Watch(spec.Pin, func(sinceBoot time.Duration) {
			src.OnSignalTransition(debounce.Millis(sinceBoot))
		}); err != nil {
			return nil, fmt.Errorf("button %s: %w", spec.Name, err)
		}

		sources = append(sources, &buttonSource{spec: spec, src: src})
	}
	return sources, nil
}

func trackerButtons(buttons []ButtonSpec) []status.Button {
	out := make([]status.Button, len(buttons))
	for i, b := range buttons {
		out[i] = status.Button{Name: b.Name, Pin: b.Pin, LEDPin: b.LEDPin}
	}
	return out
}

func runLoop(sources []*buttonSource, outputs gpio.Outputs, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	lastHeartbeat := now()

	for {
		select {
		case s := <-sig:
			log.Infof("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Errorf("failed to publish shutdown event: %v", err)
			} else {
				log.Info("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()

			for _, b := range sources {
				ev, ok := b.src.PollAndConsume()
				if !ok {
					continue
				}
				b.presses++

				ledOn := false
				if b.spec.LEDPin != 0 {
					var err error
					ledOn, err = outputs.Toggle(b.spec.LEDPin)
					if err != nil {
						log.Errorf("toggle led for %s: %v", b.spec.Name, err)
					}
				}

				log.Infof("press: %s (pin=%d seq=%d presses=%d)", b.spec.Name, b.spec.Pin, ev.Seq, b.presses)

				event := mqtt.ButtonEvent{
					Timestamp:  t,
					Name:       b.spec.Name,
					Pin:        b.spec.Pin,
					Seq:        ev.Seq,
					EdgeMillis: ev.Millis,
					Presses:    b.presses,
				}
				if err := publisher.Publish(event); err != nil {
					log.Errorf("publish error: %v", err)
					// Don't crash on publish failure
				}

				if tracker != nil {
					tracker.RecordPress(b.spec.Name, ev.Seq, t, ledOn)
				}
			}

			if tracker != nil && mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}

			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t

				hbEvent := mqtt.SystemEvent{
					Timestamp: t,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					snap := tracker.Snapshot()
					log.Infof("heartbeat: uptime=%v presses=%d", snap.Uptime().Truncate(time.Second), snap.TotalPresses())
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Errorf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
