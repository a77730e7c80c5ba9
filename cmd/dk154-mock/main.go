package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"dk154mock/pkg/ascol"
	"dk154mock/pkg/ccd3"
	"dk154mock/pkg/config"
	"dk154mock/pkg/dfosc"
	"dk154mock/pkg/frame"
	"dk154mock/pkg/hardware"
	"dk154mock/pkg/logging"
	"dk154mock/pkg/store"
	"dk154mock/pkg/tcpserver"
	"dk154mock/pkg/telemetry"
	"dk154mock/templates"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"
)

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("ascol-port") {
		cfg.ASCOL.Port = c.Int("ascol-port")
	}
	if c.IsSet("dfosc-port") {
		cfg.DFOSC.Port = c.Int("dfosc-port")
	}
	if c.IsSet("ccd3-port") {
		cfg.CCD3.Port = c.Int("ccd3-port")
	}
	if c.IsSet("data-path") {
		cfg.CCD3.DataPath = c.String("data-path")
	}
	if c.Bool("no-data") {
		cfg.CCD3.WriteFrames = false
	}
	return cfg, cfg.Validate()
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logFile, err := logging.Setup(log.StandardLogger(), cfg.Logging, c.Bool("debug"))
	if err != nil {
		return fmt.Errorf("failed to set up logging: %v", err)
	}
	defer logFile.Close()

	log.Info("DK-1.54 Mock Server")

	tmpl, err := templates.LoadTemplates()
	if err != nil {
		return fmt.Errorf("failed to load templates: %v", err)
	}

	st, err := store.Open(cfg.Store.Path, cfg.Park, log.WithField("component", "store"))
	if err != nil {
		return err
	}
	defer st.Close()

	park, err := st.GetPark()
	if err != nil {
		return fmt.Errorf("failed to read park position: %v", err)
	}

	devices := hardware.NewDevices(cfg.Timing, cfg.Site, park, log.StandardLogger())
	obs := hardware.NewObservatory(devices, hardware.SystemClock{}, log.WithField("component", "observatory"))

	var opts []ccd3.Option
	opts = append(opts, ccd3.WithSensor(cfg.CCD3.Sensor))
	if cfg.CCD3.WriteFrames {
		archive, err := frame.NewArchive(cfg.CCD3.DataPath, log.WithField("component", "frames"))
		if err != nil {
			return err
		}
		opts = append(opts, ccd3.WithFrames(frame.NewSynthesizer(cfg.CCD3.Sensor, cfg.CCD3.Seed), archive))
		log.Infof("Writing frames to %s", archive.Dir())
	} else {
		log.Warn("Frame output disabled")
	}

	ccd3Server := ccd3.NewServer(obs, st, tmpl, log.WithField("server", "ccd3"), opts...)
	srv := &http.Server{
		Addr:    cfg.CCD3.Addr(),
		Handler: ccd3Server.AddRoutes(),
	}

	ascolServer := ascol.NewServer(cfg.ASCOL.Addr(), obs, cfg.ASCOL.IdleTimeout, log.StandardLogger())
	dfoscServer := dfosc.NewServer(cfg.DFOSC.Addr(), obs, cfg.DFOSC.IdleTimeout, log.StandardLogger())
	for _, s := range []*tcpserver.Server{ascolServer, dfoscServer} {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	// Channel to listen for interrupt or terminate signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Infof("CCD3 server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("Could not listen on %s: %v", srv.Addr, err)
			stop()
		}
	}()

	for _, s := range []*tcpserver.Server{ascolServer, dfoscServer} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Run(ctx); err != nil {
				log.Errorf("TCP server failed: %v", err)
				stop()
			}
		}()
	}

	if cfg.MQTT.Enabled {
		client, err := telemetry.Connect(cfg.MQTT)
		if err != nil {
			log.Errorf("Telemetry disabled: %v", err)
		} else {
			defer client.Disconnect(250)

			var responder tcpserver.Responder
			if cfg.MQTT.Commands {
				responder = ascol.NewResponder(obs, log.WithField("server", "mqtt"))
			}
			publisher := telemetry.NewPublisher(client, obs, responder, cfg.MQTT, log.StandardLogger())

			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := publisher.Run(ctx); err != nil {
					log.Errorf("Telemetry stopped: %v", err)
				}
			}()
		}
	}

	<-ctx.Done()

	log.Info("Shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx2); err != nil {
		return fmt.Errorf("server forced to shutdown: %v", err)
	}

	wg.Wait()
	log.Info("Server stopped")
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("Could not load .env file: %v", err)
	}

	app := cli.App{
		Name:  "dk154-mock",
		Usage: "DK-1.54 telescope, DFOSC and CCD3 simulator",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				EnvVars: []string{"DK154_CONFIG"},
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Enable debug logging",
				Value:   false,
				EnvVars: []string{"DEBUG"},
			},
			&cli.StringFlag{
				Name:    "data-path",
				Usage:   "Directory for synthesised frames",
				EnvVars: []string{"DK154_DATA_PATH"},
			},
			&cli.BoolFlag{
				Name:    "no-data",
				Aliases: []string{"w"},
				Usage:   "Do not synthesise or write frames",
				EnvVars: []string{"DK154_NO_DATA"},
			},
			&cli.IntFlag{
				Name:    "ascol-port",
				Usage:   "ASCOL port",
				Value:   ascol.DefaultPort,
				EnvVars: []string{"ASCOL_PORT"},
			},
			&cli.IntFlag{
				Name:    "dfosc-port",
				Usage:   "DFOSC port",
				Value:   dfosc.DefaultPort,
				EnvVars: []string{"DFOSC_PORT"},
			},
			&cli.IntFlag{
				Name:    "ccd3-port",
				Usage:   "CCD3 HTTP port",
				Value:   ccd3.DefaultPort,
				EnvVars: []string{"CCD3_PORT"},
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
