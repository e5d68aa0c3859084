package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/muurk/apled/internal/actuator"
	"github.com/muurk/apled/internal/config"
	"github.com/muurk/apled/internal/discovery"
	"github.com/muurk/apled/internal/gpio"
	"github.com/muurk/apled/internal/logging"
	"github.com/muurk/apled/internal/metrics"
	"github.com/muurk/apled/internal/network"
	"github.com/muurk/apled/internal/publish"
	"github.com/muurk/apled/internal/server"
	"github.com/muurk/apled/internal/version"
)

// Serve flags. Each one, when given, overrides the config file.
var (
	host          string
	port          int
	logLevel      string
	gpioDriver    string
	gpioPin       string
	apInterface   string
	apAddress     string
	metricsListen string
	mqttBroker    string
	noMDNS        bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the LED web server",
	Long: `Start the LED web server.

Startup order: load config, initialise the LED pin (off), wait for the
access point address, register routes, open the listener, then advertise
over mDNS. Any failure before the listener is open aborts startup.

SIGINT or SIGTERM shuts the server down gracefully.`,
	Example: `  # Run with the config file and defaults
  apled-server serve

  # Real hardware on a Raspberry Pi, AP on wlan0
  apled-server serve --gpio-driver periph --pin GPIO17 --interface wlan0

  # Development host: in-memory pin, high port, metrics on :9100
  apled-server serve --port 8080 --address 127.0.0.1 --metrics-listen :9100 --log-level debug`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&host, "host", "", "Listen host (empty = all interfaces)")
	f.IntVar(&port, "port", 80, "Listen port")
	f.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	f.StringVar(&gpioDriver, "gpio-driver", "memory", "GPIO driver (periph, memory)")
	f.StringVar(&gpioPin, "pin", "GPIO2", "LED pin name")
	f.StringVar(&apInterface, "interface", "", "Network interface carrying the access point")
	f.StringVar(&apAddress, "address", "192.168.4.1", "Static address to report when no interface is set")
	f.StringVar(&metricsListen, "metrics-listen", "", "Prometheus listen address (empty = disabled)")
	f.StringVar(&mqttBroker, "mqtt-broker", "", "MQTT broker URL, e.g. tcp://192.168.4.2:1883 (empty = disabled)")
	f.BoolVar(&noMDNS, "no-mdns", false, "Disable mDNS advertisement")
}

// applyServeFlags copies every flag the user set onto cfg.
func applyServeFlags(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("host") {
		cfg.HTTP.Host = host
	}
	if flags.Changed("port") {
		cfg.HTTP.Port = port
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("gpio-driver") {
		cfg.GPIO.Driver = gpioDriver
	}
	if flags.Changed("pin") {
		cfg.GPIO.Pin = gpioPin
	}
	if flags.Changed("interface") {
		cfg.AccessPoint.Interface = apInterface
	}
	if flags.Changed("address") {
		cfg.AccessPoint.Address = apAddress
	}
	if flags.Changed("metrics-listen") {
		cfg.Metrics.Listen = metricsListen
	}
	if flags.Changed("mqtt-broker") {
		cfg.MQTT.Broker = mqttBroker
	}
	if flags.Changed("no-mdns") {
		cfg.MDNS.Enabled = !noMDNS
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyServeFlags(cmd.Flags(), cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logging.Initialize(cfg.LogLevel); err != nil {
		return err
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, network.NewLocal(), nil)
}

// serve runs the server until ctx ends or the listener fails. ready, when
// non-nil, receives the bound address once requests can be served.
func serve(ctx context.Context, cfg *config.Config, boot network.Bootstrapper, ready func(net.Addr)) error {
	logging.Info("Starting apled server", zap.String("version", version.Full()))

	driver, err := gpio.New(cfg.GPIO.Driver)
	if err != nil {
		return err
	}
	state, err := actuator.New(driver, cfg.GPIO.Pin)
	if err != nil {
		return err
	}
	state.Subscribe(func(c actuator.Change) {
		logging.LogStateChange(string(c.Source), c.Previous, c.Engaged, c.Seq)
	})

	bootCtx, cancel := context.WithTimeout(ctx, cfg.AccessPoint.BringUpTimeout)
	ip, err := boot.BringUpAccessPoint(bootCtx, network.AccessPoint{
		SSID:       cfg.AccessPoint.SSID,
		Password:   cfg.AccessPoint.Password,
		Channel:    cfg.AccessPoint.Channel,
		MaxClients: cfg.AccessPoint.MaxClients,
		Interface:  cfg.AccessPoint.Interface,
		Address:    cfg.AccessPoint.Address,
	})
	cancel()
	if err != nil {
		return fmt.Errorf("network bring-up failed: %w", err)
	}

	src := metrics.NewRuntime(metrics.ChipIdentity{
		Model:    cfg.Device.ChipModel,
		Cores:    cfg.Device.Cores,
		Features: metrics.Features(boot.Wireless()),
	})

	srv := server.New(&server.Config{
		Host:            cfg.HTTP.Host,
		Port:            cfg.HTTP.Port,
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		WriteTimeout:    cfg.HTTP.WriteTimeout,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		MetricsListen:   cfg.Metrics.Listen,
	}, state, src)

	addr, err := srv.Listen()
	if err != nil {
		return err
	}
	boundPort := addr.(*net.TCPAddr).Port

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve()
	}()

	var adv *discovery.Advertiser
	if cfg.MDNS.Enabled {
		adv, err = discovery.Advertise(discovery.Announcement{
			Instance: cfg.MDNS.Instance,
			Port:     boundPort,
			Version:  version.Version,
		})
		if err != nil {
			logging.Warn("mDNS advertisement disabled", zap.Error(err))
		}
	}

	var pub *publish.Publisher
	if cfg.MQTT.Broker != "" {
		pub, err = publish.Connect(publish.Config{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			QoS:         byte(cfg.MQTT.QoS),
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
		}, state)
		if err != nil {
			logging.Warn("MQTT publishing disabled", zap.String("broker", cfg.MQTT.Broker), zap.Error(err))
		}
	}

	logging.LogAccessPoint(cfg.AccessPoint.SSID, ip.String(), boundPort)
	if ready != nil {
		ready(addr)
	}

	var serveErr error
	select {
	case serveErr = <-errChan:
	case <-ctx.Done():
		logging.Info("Received shutdown signal")
	}

	adv.Shutdown()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout+time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = err
	}

	if pub != nil {
		_ = pub.Close()
	}

	logging.Info("Server stopped")
	return serveErr
}
